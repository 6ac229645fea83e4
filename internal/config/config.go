// Package config reads the service configuration from etc/main.toml and the environment.
package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. CRM_AUTHZ_DB_HOST.
	EnvPrefix = "CRM_AUTHZ"

	// EnvConfigJSON holds a JSON document merged over the file configuration.
	EnvConfigJSON = EnvPrefix + "_CONFIG_JSON"

	defaultShutDownTime = 5
)

// ReadConfig reads main.toml of the directory path, applies environment overrides and validates the result.
// An empty path means "./etc/".
func ReadConfig(path string) (Config, error) {
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, pkgerrors.Wrap(err, "failed to read main config file")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, pkgerrors.Wrap(err, "failed to decode main config file")
	}

	if raw := os.Getenv(EnvConfigJSON); raw != "" {
		merged, err := decodeAndMergeConfig(c, raw)
		if err != nil {
			return c, err
		}

		c = merged
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	return c, validate(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "crm-authz")
	v.SetDefault("db.gormEngine", "sqlite")
	v.SetDefault("db.path", "crm-authz.db")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.extras", "")
	v.SetDefault("log.logLevel", "info")
	v.SetDefault("log.appName", "crm-authz")
	v.SetDefault("log.serviceName", "crm-authz")
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("webserver.port", 8080)
	v.SetDefault("webserver.url", "http://localhost:8080")
	v.SetDefault("webserver.session.expiryTime", 24*time.Hour)
	v.SetDefault("authz.cacheSize", 1024)
	v.SetDefault("authz.cacheTTL", time.Minute)
	v.SetDefault("authz.ownerBundleFile", "")
	v.SetDefault("authz.adminPassword", "changeme")
	v.SetDefault("generator.prefix", "/api")
	v.SetDefault("generator.snapshotFile", "")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, pkgerrors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(data) + "\n", nil
}

// validate checks the struct tags and maps the common failures to sentinel errors.
func validate(c Config) error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.Wrap(err, ErrInvalidConfig.Error())
	}

	switch ns := verrs[0].StructNamespace(); ns {
	case "Config.Webserver.Port":
		return pkgerrors.Wrap(ErrInvalidPort, ErrInvalidConfig.Error())
	case "Config.Webserver.URL":
		return pkgerrors.Wrap(ErrEmptyURL, ErrInvalidConfig.Error())
	case "Config.DB.GormEngine":
		return pkgerrors.Wrap(ErrUnknownEngine, ErrInvalidConfig.Error())
	default:
		return pkgerrors.Wrapf(ErrInvalidConfig, "%s: %s", ns, verrs[0].Tag())
	}
}
