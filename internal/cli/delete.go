package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func NewDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid conversation ID: %s", args[0])
			}

			if !force {
				fmt.Printf("Delete conversation %d? [y/N] ", id)
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
					fmt.Println("Cancelled.")
					return nil
				}
			}

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

			if err := a.conversations.DeleteConversation(ctx, id); err != nil {
				return fmt.Errorf("failed to delete conversation: %w", err)
			}
			fmt.Printf("Deleted conversation %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
