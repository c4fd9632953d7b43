package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keydesk/internal/config"
	"keydesk/internal/domain"
	"keydesk/internal/handler"
	"keydesk/internal/middleware"
	"keydesk/internal/notify"
	"keydesk/internal/repository"
	"keydesk/internal/repository/memory"
	"keydesk/internal/repository/postgres"
	"keydesk/internal/service"
	"keydesk/internal/translate"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Keydesk Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully",
		zap.String("store", cfg.Store),
		zap.String("notify", cfg.Notify.Backend),
	)

	// Initialize repositories
	var (
		userRepo  repository.UserRepository
		keyRepo   repository.KeyRepository
		batchRepo repository.ProofreadingRepository
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch cfg.Store {
	case config.StorePostgres:
		// Connect to database with retries
		db, err := connectDatabase(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connection established")

		// Run migrations
		if err := runMigrations(db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		logger.Info("Database migrations completed")

		userRepo = postgres.NewUserRepo(db)
		keyRepo = postgres.NewKeyRepo(db)
		batchRepo = postgres.NewProofreadingRepo(db)
	default:
		store := memory.NewStore()
		userRepo = memory.NewUserRepo()
		keyRepo = store
		batchRepo = store
	}

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("Handler failed", zap.Error(err))
		},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize outbound integrations
	gateway := newGateway(cfg, bot, logger)
	generator := newGenerator(cfg)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.BotPassword)
	keyService := service.NewKeyService(keyRepo, batchRepo, gateway, service.BatchConfig{
		Channel: cfg.Notify.Channel,
		Editor:  service.EditorLink{BaseURL: cfg.Editor.URL, ProjectID: cfg.Editor.ProjectID},
	}, logger)
	draftService := service.NewDraftService(generator, cfg.Drafts.Timeout, logger)
	proofService := service.NewProofreadingService(batchRepo, gateway, cfg.Notify.Channel, domain.DefaultTeamMentions, logger)
	statsService := service.NewStatsService(keyRepo, batchRepo, gateway, cfg.Notify.Channel, logger)

	// Initialize handler
	bot.Use(middleware.AuthMiddleware(authService, logger))
	h := handler.NewHandler(bot, authService, keyService, draftService, proofService, statsService, handler.Options{
		DefaultProject: cfg.DefaultProject,
		AutoTranslate:  cfg.AutoTranslate,
	}, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start digest job in background
	if cfg.Notifications {
		go runDigestJob(ctx, statsService, logger)
	}

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()

	logger.Info("Bot stopped gracefully")
}

// newGateway builds the configured notification gateway with retries
func newGateway(cfg *config.Config, bot *tele.Bot, logger *zap.Logger) notify.Gateway {
	var gw notify.Gateway
	switch cfg.Notify.Backend {
	case config.NotifySlack:
		gw = notify.NewSlack(cfg.Notify.SlackWebhookURL, 15*time.Second)
	case config.NotifyTelegram:
		gw = notify.NewTelegram(bot)
	default:
		return notify.NewLog(logger)
	}
	return notify.NewRetrying(gw, cfg.Notify.Retries, time.Second, logger)
}

// newGenerator picks the translation service, or the stub when none is configured
func newGenerator(cfg *config.Config) translate.Generator {
	if cfg.Drafts.TranslatorURL != "" {
		return translate.NewHTTP(cfg.Drafts.TranslatorURL, cfg.Drafts.TranslatorAPIKey, cfg.Drafts.Timeout)
	}
	return translate.NewStub(cfg.Drafts.Latency)
}

// connectDatabase opens PostgreSQL and waits until it answers pings
func connectDatabase(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	const maxAttempts = 30

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(2*time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("Database not ready",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runDigestJob posts the daily translation digest
func runDigestJob(ctx context.Context, statsService *service.StatsService, logger *zap.Logger) {
	// Run digest once at startup
	if err := statsService.Digest(ctx); err != nil {
		logger.Error("Failed to run initial digest", zap.Error(err))
	}

	// Then run every 24 hours
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Digest job stopped")
			return
		case <-ticker.C:
			logger.Info("Running scheduled digest")
			if err := statsService.Digest(ctx); err != nil {
				logger.Error("Failed to run scheduled digest", zap.Error(err))
			}
		}
	}
}
