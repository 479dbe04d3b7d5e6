package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/fleet-reimbursement/migrations"
	"github.com/garyjia/fleet-reimbursement/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := database.New(database.Config{Path: cfg.Database.Path}, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS)
		for _, mg := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %03d_%s\n", mg.Version, mg.Name)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", db.Path())
		return nil
	},
}
