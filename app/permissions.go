package app

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tenantcrm/crm-authz/internal/catalog"
	"github.com/tenantcrm/crm-authz/internal/db"
	"github.com/tenantcrm/crm-authz/internal/db/controller/permission"
	"github.com/tenantcrm/crm-authz/internal/db/models"
	"github.com/tenantcrm/crm-authz/internal/web"
)

func init() { //nolint: gochecknoinits
	flags := generateCmd.Flags()
	flags.BoolVar(&generateOpts.Seed, "seed", false, "Insert permissions missing from the database")
	flags.BoolVar(&generateOpts.DryRun, "dry-run", false, "Print the catalog without touching the database")
	flags.BoolVar(&generateOpts.RemoveObsolete, "remove-obsolete", false,
		"Delete stored permissions no route or static permission backs any more")
	flags.StringVar(&generateOpts.Prefix, "prefix", "", "Route prefix stripped before names are derived (default generator.prefix)")
	flags.StringVar(&snapshotFile, "snapshot", "", "Write the JSON catalog to this file (default generator.snapshotFile)")

	permissionsCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(permissionsCmd)
}

var (
	generateOpts catalog.Options
	snapshotFile string

	permissionsCmd = &cobra.Command{
		Use:   "permissions",
		Short: "Manage the permission catalog",
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate the permission catalog from the route registry",
		Long: `Generate derives one permission per route and HTTP method, merges the static
permissions and compares the result with the database. The JSON catalog is
printed on every run, followed by a summary line unless --dry-run is set.
Without --seed and --remove-obsolete the differences are only reported.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(); err != nil {
				return err
			}

			if !cmd.Flags().Changed("prefix") {
				generateOpts.Prefix = cfg.Generator.Prefix
			}

			if !cmd.Flags().Changed("snapshot") {
				snapshotFile = cfg.Generator.SnapshotFile
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd, generateOpts, snapshotFile)
		},
	}
)

// generate runs the catalog generator. Only failures to reach the store are returned as errors,
// everything else is logged.
func generate(cmd *cobra.Command, opts catalog.Options, snapshot string) error {
	res, err := catalog.Generate(web.Routes(), catalog.StaticPermissions(), opts)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate permission catalog")
		return nil
	}

	log.Info().Int("permissions", len(res.Permissions)).Int("skipped", res.Skipped).Msg("permission catalog generated")

	if snapshot != "" {
		if err = catalog.WriteSnapshot(snapshot, res); err != nil {
			log.Error().Err(err).Str("file", snapshot).Msg("failed to write snapshot")
		}
	}

	// the snapshot goes to stdout on every run, the summary line follows it
	if _, err = cmd.OutOrStdout().Write(res.Snapshot); err != nil {
		return err
	}

	if opts.DryRun {
		return nil
	}

	gdb, err := db.Open(cfg.DB, cfg.DevMode)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	if sqlDB, errDB := gdb.DB(); errDB == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	if err = models.Migrate(gdb); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	diff, err := catalog.Reconcile(cmd.Context(), permission.Store{DB: gdb}, res, opts)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "permissions: %d, new: %d, obsolete: %d, inserted: %d, removed: %d\n",
		len(res.Permissions), len(diff.New), len(diff.Obsolete), diff.Inserted, diff.Removed)

	return err
}
