package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/models"
)

func NewAskCommand() *cobra.Command {
	var conversationID int64

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-shot question",
		Long: `Send a single question to the agentic RAG pipeline and print the
answer with its route annotation (which knowledge source produced it).`,
		Example: `  # New conversation
  ragline ask "What is hybrid search?"

  # Continue an existing conversation
  ragline ask --conversation 42 "And compared to BM25?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
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

			if err := a.conversations.SendMessage(ctx, question, conversationID); err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}

			snap := a.conversations.Snapshot()
			for _, msg := range snap.Messages {
				if msg.Role != models.RoleAssistant {
					continue
				}
				fmt.Println(msg.Content)
				if msg.RouteTaken != "" {
					fmt.Printf("\n[route: %s]\n", strings.ReplaceAll(msg.RouteTaken, "_", " "))
				}
			}
			if snap.Current != nil {
				fmt.Printf("[conversation: %d]\n", snap.Current.ID)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&conversationID, "conversation", 0, "Conversation ID to continue (default: new conversation)")

	return cmd
}
