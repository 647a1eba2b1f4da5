package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"compilestrength/internal/agent"
	"compilestrength/internal/config"
	"compilestrength/internal/db"
	"compilestrength/internal/email"
	"compilestrength/internal/logger"
	"compilestrength/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		logger.Init()
	} else {
		logger.InitDevelopment()
	}
	defer logger.Sync()
	logger.Info("Starting CompileStrength API", "env", cfg.Environment)

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is empty; chat requests will fail upstream")
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	sender := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom, cfg.EmailFromName)
	mail := email.New(rdb, sender)
	defer mail.Close()

	model := agent.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ModelTimeout)
	srv := server.New(database, cfg, mail, model)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mail.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Port)
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}
