package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"grocery_sheets/internal/app"

	"github.com/spf13/cobra"
)

// Opener builds the wired application. Notices are written to out.
type Opener func(ctx context.Context, out io.Writer) (*app.App, error)

type App struct {
	Format string

	open  Opener
	built *app.App
}

func NewRootCmd() *cobra.Command {
	return NewRootCmdWith(openFromEnv)
}

// NewRootCmdWith builds the command tree over a custom application opener.
func NewRootCmdWith(open Opener) *cobra.Command {
	a := &App{open: open}

	cmd := &cobra.Command{
		Use:           "grocery",
		Short:         "Grocery list kept in a Google Sheets spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in with a Google OAuth access token
  grocery login --token ya29...

  # Show the list, optionally filtered
  grocery list --search milk

  # Add and tick off items
  grocery add "Whole milk" --qty 2 --price 3.49
  grocery check 3f1c...

  # Serve the JSON API
  grocery serve --addr :8080
`),
	}

	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a.built != nil {
			a.built.Close()
		}
	}

	cmd.PersistentFlags().StringVar(&a.Format, "format", envOr("GROCERY_FORMAT", "table"), "Output format (table|json)")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newCheckCmd(a, "check", true))
	cmd.AddCommand(newCheckCmd(a, "uncheck", false))
	cmd.AddCommand(newRemoveCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

func openFromEnv(ctx context.Context, out io.Writer) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, out)
}

// load opens the application once per invocation.
func (a *App) load(cmd *cobra.Command) (*app.App, error) {
	if a.built != nil {
		return a.built, nil
	}
	built, err := a.open(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	a.built = built
	return built, nil
}

// start opens the application and restores the persisted session.
func (a *App) start(cmd *cobra.Command) (*app.App, bool, error) {
	built, err := a.load(cmd)
	if err != nil {
		return nil, false, err
	}
	restored, err := built.Start(cmd.Context())
	return built, restored, err
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
