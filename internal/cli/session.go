package cli

import (
	"errors"
	"fmt"

	"grocery_sheets/internal/session"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session with a Google OAuth access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return writeErr(cmd, errors.New("missing --token"))
			}
			built, err := a.load(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			built.Container.Attach(built.Session)

			if err := built.Session.SignIn(cmd.Context(), token); err != nil {
				return writeErr(cmd, err)
			}
			return printSession(cmd, a, built.Session)
		},
	}
	cmd.Flags().StringVar(&token, "token", envOr("GROCERY_TOKEN", ""), "OAuth access token with the spreadsheets scope")
	return cmd
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := a.load(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := built.Session.SignOut(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := a.load(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			restored, err := built.Session.Restore(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if !restored {
				return writeErr(cmd, session.ErrNotAuthenticated)
			}
			return printSession(cmd, a, built.Session)
		},
	}
}

func printSession(cmd *cobra.Command, a *App, s *session.Session) error {
	profile := s.Profile()
	if a.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"authenticated": s.Authenticated(),
			"user":          profile,
		})
	}
	switch {
	case profile == nil:
		fmt.Fprintln(cmd.OutOrStdout(), "Signed in (profile unavailable)")
	case profile.Email != "":
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", profile.Name, profile.Email)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", profile.Name)
	}
	return nil
}
