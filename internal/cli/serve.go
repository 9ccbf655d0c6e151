package cli

import (
	"os/signal"
	"syscall"

	"grocery_sheets/internal/app"
	"grocery_sheets/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd(a *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grocery list as a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.LogLevelSet() {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			built, restored, err := a.start(cmd)
			if built == nil {
				return writeErr(cmd, err)
			}
			if err != nil {
				log.Warn().Err(err).Msg("Initial load failed; serving an empty list")
			}
			if !restored {
				log.Info().Msg("No session yet; sign in through POST /api/session")
			}

			if addr == "" && built.Config != nil {
				addr = built.Config.ListenAddr
			}
			if addr == "" {
				addr = ":8080"
			}
			return server.New(built.Container, built.Session).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default LISTEN_ADDR or :8080)")
	return cmd
}
