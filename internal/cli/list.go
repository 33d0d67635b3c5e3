package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/conversation"
	"github.com/ragline/ragline/internal/search"
)

func NewListCommand() *cobra.Command {
	var cached bool
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations grouped by recency",
		Example: `  # List conversations from the server
  ragline list

  # Render the last-seen list without a network round trip
  ragline list --cached

  # Filter by title
  ragline list --filter search`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if cached {
				a.conversations.LoadFromCache(0)
			} else {
				a.session.CheckAuth(ctx)
				if !a.session.Snapshot().IsAuthenticated {
					return fmt.Errorf("not signed in; run `ragline login` first (or use --cached)")
				}
				a.conversations.LoadConversations(ctx)
			}

			convs := search.FilterTitles(a.conversations.Snapshot().Conversations, filter)
			if len(convs) == 0 {
				fmt.Println("No conversations found.")
				return nil
			}

			for _, group := range conversation.GroupByDate(convs, time.Now()) {
				fmt.Printf("%s\n", group.Bucket)
				for _, conv := range group.Conversations {
					fmt.Printf("  [%d] %s  (%d messages, %s)\n",
						conv.ID, conv.Title, conv.MessageCount,
						humanize.Time(conv.UpdatedAt.Time))
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "List from the offline cache instead of the server")
	cmd.Flags().StringVar(&filter, "filter", "", "Filter conversations by title")

	return cmd
}
