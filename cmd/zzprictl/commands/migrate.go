package commands

import (
	"log/slog"
	"time"

	"zzpri-tracker/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and default accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setup()
			slog.Info("database migrated")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty tables with demo records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setup()
			if err := database.SeedDemoData(time.Now().UTC()); err != nil {
				return err
			}
			slog.Info("demo data seeded")
			return nil
		},
	}
}
