package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectConfigPath returns the etc/ directory of the repository.
func projectConfigPath(t *testing.T) string {
	t.Helper()

	root, err := filepath.Abs("../../")
	require.NoError(t, err)

	return filepath.Join(root, "etc") + string(filepath.Separator)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(content), 0o600))

	return dir + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(projectConfigPath(t))
	require.NoError(t, err)

	assert.Equal(t, "crm-authz", cfg.Title)
	assert.Equal(t, 8080, cfg.Webserver.Port)
	assert.Equal(t, "sqlite", cfg.DB.GormEngine)
	assert.Equal(t, 24*time.Hour, cfg.Webserver.Session.ExpiryTime)
	assert.Equal(t, time.Minute, cfg.Authz.CacheTTL)
	assert.Contains(t, cfg.Authz.OwnerResources, "payment")
	assert.Equal(t, "/api", cfg.Generator.Prefix)
	assert.Equal(t, "access.log", cfg.Log.File.Access.Name)
	assert.True(t, cfg.Log.Console.Enabled)
}

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, "title = \"minimal\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "minimal", cfg.Title)
	assert.Equal(t, 8080, cfg.Webserver.Port)
	assert.Equal(t, 5, cfg.Webserver.ShutDownTime)
	assert.Equal(t, "sqlite", cfg.DB.GormEngine)
	assert.Equal(t, 1024, cfg.Authz.CacheSize)
	assert.Equal(t, "changeme", cfg.Authz.AdminPassword)
}

func TestReadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "[db]\nhost = \"file-host\"\n")

	t.Setenv("CRM_AUTHZ_DB_HOST", "env-host")
	t.Setenv("CRM_AUTHZ_WEBSERVER_PORT", "9090")

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.DB.Host)
	assert.Equal(t, 9090, cfg.Webserver.Port)
}

func TestReadConfigJSONOverride(t *testing.T) {
	path := writeConfig(t, "title = \"file\"\n")

	t.Setenv(EnvConfigJSON, `{"Title": "json", "Authz": {"CacheSize": 0}}`)

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Title)
	assert.Zero(t, cfg.Authz.CacheSize)

	t.Setenv(EnvConfigJSON, `{"Title": `)

	_, err = ReadConfig(path)
	require.Error(t, err)
}

func TestReadConfigValidation(t *testing.T) {
	testCases := []struct {
		name          string
		content       string
		expectedError error
	}{
		{
			name:          "port zero",
			content:       "[webserver]\nport = 0\n",
			expectedError: ErrInvalidPort,
		},
		{
			name:          "port out of range",
			content:       "[webserver]\nport = 70000\n",
			expectedError: ErrInvalidPort,
		},
		{
			name:          "empty url",
			content:       "[webserver]\nurl = \"\"\n",
			expectedError: ErrEmptyURL,
		},
		{
			name:          "unknown engine",
			content:       "[db]\ngormEngine = \"oracle\"\n",
			expectedError: ErrUnknownEngine,
		},
		{
			name:          "negative cache size",
			content:       "[authz]\ncacheSize = -1\n",
			expectedError: ErrInvalidConfig,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, tc.content))
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir() + string(filepath.Separator))
	require.Error(t, err)
}

func TestDumpConfig(t *testing.T) {
	cfg, err := ReadConfig(projectConfigPath(t))
	require.NoError(t, err)

	out, err := DumpConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "[Webserver]")
	assert.Contains(t, out, "GormEngine = \"sqlite\"")

	out, err = DumpConfigJSON(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"GormEngine": "sqlite"`)
}
