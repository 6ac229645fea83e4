// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/tenantcrm/crm-authz/internal/config"
	"github.com/tenantcrm/crm-authz/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "crm-authz",
	Short: "crm-authz is the authorization service of the multi-tenant CRM",
	Long: `crm-authz decides which requests of the multi-tenant CRM are allowed.
It serves the role and permission API and generates the permission catalog
from the HTTP route registry.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Directory of main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig() error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}
