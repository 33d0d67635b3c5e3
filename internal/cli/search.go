package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/search"
)

func NewSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over cached transcripts",
		Long: `Search message content across every conversation ragline has seen.
Runs entirely against the offline cache; no network round trip.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := search.NewSearcher(a.state).Search(query, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("No matches in the local cache.")
				return nil
			}

			for _, r := range results {
				fmt.Printf("[%d] %s  (%s)\n", r.Conversation.ID, r.Conversation.Title,
					humanize.Time(r.Conversation.UpdatedAt.Time))
				fmt.Printf("  %s\n\n", r.Snippet)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")

	return cmd
}
