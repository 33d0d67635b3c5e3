package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/session"
)

func NewLoginCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through your browser",
		Long: `Start the OAuth login round trip: your browser opens the provider's
sign-in page, and ragline waits for the redirect to come back.`,
		Example: `  # Sign in
  ragline login

  # Give up after one minute
  ragline login --timeout 1m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if a.session.Snapshot().IsAuthenticated {
				a.session.CheckAuth(ctx)
				if snap := a.session.Snapshot(); snap.IsAuthenticated {
					fmt.Printf("Already signed in as %s <%s>\n", snap.User.Name, snap.User.Email)
					return nil
				}
			}

			if err := a.session.Login(ctx, "chat"); err != nil {
				return fmt.Errorf("failed to start login: %w", err)
			}
			fmt.Println("Waiting for the browser sign-in to finish...")

			callback := session.NewCallbackServer(a.gateway, a.session, a.cfg.CallbackPort, timeout)
			if _, err := callback.Wait(ctx); err != nil {
				return err
			}

			snap := a.session.Snapshot()
			fmt.Printf("Signed in as %s <%s>\n", snap.User.Name, snap.User.Email)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the browser round trip")

	return cmd
}
