package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"inbox2notion/internal/classify"
	"inbox2notion/internal/config"
	"inbox2notion/internal/database"
	"inbox2notion/internal/email"
	"inbox2notion/internal/filter"
	"inbox2notion/internal/notion"
	"inbox2notion/internal/processor"
	"inbox2notion/internal/scheduler"
	"inbox2notion/internal/state"
	"inbox2notion/pkg/models"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("starting inbox2notion")

	// Load the editable configuration documents, creating defaults on first run
	docs, err := config.LoadDocuments(cfg.ConfigDir)
	if err != nil {
		logger.Error("failed to load config documents", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	if failed, err := db.CountByStatus(ctx, models.StatusFailed); err == nil && failed > 0 {
		logger.Warn("ledger contains permanently failed messages", "count", failed)
	}

	// Resolve the IMAP endpoint when not set explicitly
	server := cfg.IMAPServer
	if server == "" {
		server, err = email.ResolveIMAPServer(cfg.EmailAddress)
		if err != nil {
			logger.Error("failed to resolve imap server", "error", err)
			os.Exit(1)
		}
		logger.Info("resolved imap server", "server", server)
	}

	// Create components
	mailbox := email.NewClient(email.ClientConfig{
		Email:       cfg.EmailAddress,
		Password:    cfg.EmailPassword,
		Server:      server,
		DialTimeout: cfg.IMAPDialTimeout,
	}, logger)

	publisher := notion.NewClient(notion.Config{
		Token:      cfg.NotionToken,
		DatabaseID: cfg.NotionDatabaseID,
		BaseURL:    cfg.NotionBaseURL,
	}, logger)

	proc := processor.New(
		mailbox,
		db,
		publisher,
		filter.New(docs.Ignore),
		classify.NewClassifier(docs.Keywords),
		classify.NewDueDateDetector(),
		cfg.FetchTimeout,
		logger,
	)

	clock := state.NewClock(cfg.LastRunPath)
	engine := scheduler.NewEngine(docs.Schedule, clock, proc.Run, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		logger.Info("shutting down...")
		cancel()
	}()

	// The startup pass covers mail that arrived while the daemon was down
	if err := engine.RunWithCatchUp(ctx); err != nil {
		logger.Error("startup pass incomplete", "error", err)
	}

	sched, err := scheduler.New(ctx, docs.Schedule, engine, logger)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()

	logger.Info("daemon is running, press Ctrl+C to stop")
	<-ctx.Done()

	sched.Stop()
	logger.Info("daemon stopped")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	logLevel := parseLevel(cfg.LogLevel)

	var console slog.Handler
	if cfg.LogFormat == "json" {
		console = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		console = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	if cfg.LogFile == "" {
		return slog.New(console)
	}

	// The file copy is always JSON and rotates by size
	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(slogmulti.Fanout(console, file))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
