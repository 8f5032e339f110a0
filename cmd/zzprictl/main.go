package main

import (
	"log/slog"
	"os"

	"zzpri-tracker/cmd/zzprictl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		slog.Error("error executing command", "err", err)
		os.Exit(1)
	}
}
