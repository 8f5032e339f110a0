// Package commands holds the zzprictl subcommands.
package commands

import (
	"zzpri-tracker/internal/config"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/logging"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "zzprictl",
		Short:         "Maintenance commands for the ZZPri compliance tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCommand(),
		newSeedCommand(),
		newRemindCommand(),
		newDeadlinesCommand(),
	)
	return root
}

// setup loads configuration and opens the database, migrating it on the way.
func setup() *config.Config {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	database.Init(cfg.DBDSN)
	return cfg
}
