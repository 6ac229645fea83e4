package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/tenantcrm/crm-authz/app.Version=...".
var Version = "dev" //nolint:gochecknoglobals

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "crm-authz", Version)
		return err
	},
}
