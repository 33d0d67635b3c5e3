package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.CheckAuth(cmd.Context())
			snap := a.session.Snapshot()
			if !snap.IsAuthenticated {
				fmt.Println("Not signed in. Run `ragline login`.")
				return nil
			}
			fmt.Printf("%s <%s>\n", snap.User.Name, snap.User.Email)
			return nil
		},
	}
}
