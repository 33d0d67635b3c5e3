package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/internal/storage"
	"github.com/ragline/ragline/internal/tui"
)

func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat screen",
		Long: `Full-screen chat: conversation sidebar grouped by recency, the
transcript of the selected conversation, and a composer. Sign in first
with ` + "`ragline login`" + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier := tui.NewNotifier()
			a, err := newApp(notifier)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			a.session.CheckAuth(ctx)
			if !a.session.Snapshot().IsAuthenticated {
				return fmt.Errorf("not signed in; run `ragline login` first")
			}

			watcher, err := storage.NewStateWatcher(a.state.Path())
			if err != nil {
				logging.Logger().Warn("chat: state watcher unavailable", "error", err)
				watcher = nil
			}

			return tui.NewChat(a.session, a.conversations, notifier, watcher).Run()
		},
	}
}
