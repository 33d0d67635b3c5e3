package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string
	statePath  string
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ragline",
		Short: "Terminal client for the Agentic RAG chat service",
		Long: `ragline - Chat with an agentic RAG backend from your terminal.
Sign in once with your browser, then ask one-shot questions or open the
full chat screen with a conversation sidebar.`,
		Version: "0.1.0",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.ragline/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Path to state database (default: ~/.ragline/state.db)")

	rootCmd.AddCommand(
		NewLoginCommand(),
		NewLogoutCommand(),
		NewWhoamiCommand(),
		NewAskCommand(),
		NewChatCommand(),
		NewListCommand(),
		NewNewCommand(),
		NewDeleteCommand(),
		NewSearchCommand(),
	)

	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
