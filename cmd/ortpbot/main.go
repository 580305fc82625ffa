package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mishbel44/ortp-botik/internal/interfaces/cli/migrate"
	"github.com/mishbel44/ortp-botik/internal/interfaces/cli/serve"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ortpbot",
		Short: "Telegram bot for filing and tracking Jira tickets",
		Long:  `ortpbot lets verified corporate users file Jira tickets from Telegram, follow their status and receive change notifications.`,
	}

	rootCmd.AddCommand(
		serve.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
