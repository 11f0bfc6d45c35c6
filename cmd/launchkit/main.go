package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"launchkit/internal/ai"
	"launchkit/internal/bot"
	"launchkit/internal/config"
	"launchkit/internal/pipeline"
	"launchkit/internal/scraper"
	"launchkit/internal/storage"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"badgerdb_path": cfg.BadgerDBPath,
		"gemini_model":  cfg.GeminiModel,
	}).Info("Configuration loaded successfully")

	// --- Initialize Components ---
	log.Info("Initializing components...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Info("Closing database...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()

	// Scraper
	scraperService := scraper.NewRodScraper(log)

	// AI generator and pipeline
	generator, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		log.Fatalf("Failed to initialize AI generator: %v", err)
	}
	pipe := pipeline.NewPipeline(generator, log)

	// Bot Handler
	botHandler, err := bot.NewHandler(cfg, repo, scraperService, pipe, log)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot handler: %v", err)
	}

	// --- Application Startup ---
	log.Info("Starting LaunchKit...")

	go botHandler.Start(ctx)

	log.Info("LaunchKit is running. Press Ctrl+C to exit.")

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down LaunchKit...")
	stop()

	log.Info("LaunchKit shut down gracefully.")
}
