package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewNewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create an empty conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			a.session.CheckAuth(ctx)
			if !a.session.Snapshot().IsAuthenticated {
				return fmt.Errorf("not signed in; run `ragline login` first")
			}

			conv, err := a.conversations.CreateConversation(ctx, title)
			if err != nil {
				return fmt.Errorf("failed to create conversation: %w", err)
			}
			fmt.Printf("Created conversation %d: %s\n", conv.ID, conv.Title)
			return nil
		},
	}
}
