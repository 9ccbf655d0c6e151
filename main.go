package main

import (
	"os"

	"grocery_sheets/internal/app"
	"grocery_sheets/internal/cli"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Commands print their own output; keep logs to warnings unless asked.
	app.SetupEnvironment(os.Stderr, zerolog.WarnLevel)
	log.Debug().Msg("Starting application")

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
