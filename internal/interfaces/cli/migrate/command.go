// Package migrate is the CLI frontend for schema migrations.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mishbel44/ortp-botik/internal/infrastructure/config"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/database"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/migration"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back and inspect database schema migrations.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)
	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := initEnv()
			if err != nil {
				return err
			}
			defer database.Close()
			return migration.Up(db, log)
		},
	}
}

func newDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := initEnv()
			if err != nil {
				return err
			}
			defer database.Close()
			return migration.Down(db, log)
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := initEnv()
			if err != nil {
				return err
			}
			defer database.Close()
			return migration.Status(db)
		},
	}
}

func initEnv() (*gorm.DB, logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database.Get(), logger.NewLogger(), nil
}
