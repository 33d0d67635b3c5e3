package cli

import (
	"github.com/spf13/cobra"
)

func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the local session",
		Long: `Invalidate the server-side session (best-effort) and clear local
session state. Local sign-out succeeds even when the backend is
unreachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()
			a.session.Logout(cmd.Context())
			return nil
		},
	}
}
