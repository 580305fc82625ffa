// Package serve boots the bot: database, Telegram long polling and the
// Jira webhook endpoint, all shut down gracefully on SIGINT/SIGTERM.
package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mishbel44/ortp-botik/internal/application/conversation"
	appNotification "github.com/mishbel44/ortp-botik/internal/application/notification"
	appTicket "github.com/mishbel44/ortp-botik/internal/application/ticket"
	"github.com/mishbel44/ortp-botik/internal/application/verification"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/cache"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/config"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/database"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/email"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/jira"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/migration"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/repository"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/telegram"
	httpRouter "github.com/mishbel44/ortp-botik/internal/interfaces/http"
	"github.com/mishbel44/ortp-botik/internal/interfaces/http/handlers"
	"github.com/mishbel44/ortp-botik/internal/shared/goroutine"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

var (
	env            string
	skipMigrations bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot",
		Long:  `Start the Telegram bot, the Jira webhook endpoint and the update polling loop.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Skip schema migration on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()
	log.Infow("starting bot", "environment", env)

	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
	}()
	db := database.Get()

	if !skipMigrations {
		if cfg.Database.Driver == "sqlite" {
			err = migration.AutoMigrate(db)
		} else {
			err = migration.Up(db, log)
		}
		if err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	users := repository.NewUserRepository(db)
	challenges := repository.NewChallengeRepository(db)
	tickets := repository.NewTicketRepository(db)
	notifications := repository.NewNotificationRepository(db)

	sender := email.NewSMTPEmailService(email.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPassword,
		FromAddress: cfg.Email.FromAddress,
	})

	jiraClient := jira.NewHTTPClient(cfg.Jira.URL, cfg.Jira.BearerToken, cfg.Jira.ProjectKey, log)

	verificationSvc, err := verification.NewService(
		users, challenges, sender,
		cfg.Verification.EmailPattern,
		time.Duration(cfg.Verification.CodeTTLMinutes)*time.Minute,
		time.Duration(cfg.Verification.CooldownSeconds)*time.Second,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to build verification service: %w", err)
	}

	ticketSvc := appTicket.NewService(tickets, jiraClient, log)
	notificationSvc := appNotification.NewService(notifications)

	bot := telegram.NewBotService(cfg.Telegram)

	var sessions conversation.Store = conversation.NewMemoryStore()
	var offsetStore telegram.OffsetStore
	if cfg.Session.Store == "redis" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		sessions = cache.NewSessionStore(redisClient)
		offsetStore = cache.NewPollingOffsetStore(redisClient)
		log.Infow("using redis session store", "addr", cfg.Redis.GetAddr())
	}

	notifier := conversation.NewTelegramNotifier(bot)
	pipeline := appNotification.NewPipeline(tickets, notifications, jiraClient, notifier, cfg.Telegram.BotIdentity, log)

	handler := conversation.NewHandler(
		sessions, users, verificationSvc, ticketSvc, notificationSvc,
		bot, cfg.Telegram.BotDisplayName, log,
	)

	if err := bot.DeleteWebhook(); err != nil {
		log.Warnw("failed to delete telegram webhook", "error", err)
	}
	if err := bot.SetMyCommands([]telegram.BotCommand{
		{Command: "start", Description: "Главное меню"},
	}); err != nil {
		log.Warnw("failed to set bot commands", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polling := telegram.NewPollingService(bot, handler, log, offsetStore, cfg.Telegram.PollTimeout)
	if err := polling.Start(ctx); err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	defer polling.Stop()

	webhookHandler := handlers.NewWebhookHandler(pipeline, cfg.Jira.WebhookSecret, log)
	router := httpRouter.NewRouter(webhookHandler, mapEnvToGinMode(env), log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("http server starting", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("http server failed", "error", err)
		}
	}()

	if cfg.Jira.WebhookURL != "" {
		goroutine.SafeGo(log, "webhook-registration", func() {
			if err := jiraClient.RegisterWebhook(ctx, cfg.Jira.WebhookURL, cfg.Jira.WebhookSecret); err != nil {
				log.Errorw("failed to register jira webhook", "error", err)
			}
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server forced to shut down", "error", err)
		return err
	}

	log.Infow("bot exited gracefully")
	return nil
}

func mapEnvToGinMode(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
