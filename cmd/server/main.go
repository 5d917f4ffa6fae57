package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cinestream.app/cinebot/internal/api"
	"cinestream.app/cinebot/internal/auth"
	"cinestream.app/cinebot/internal/config"
	"cinestream.app/cinebot/internal/core"
	"cinestream.app/cinebot/internal/logger"
	"cinestream.app/cinebot/internal/store"
)

func main() {
	// Command line flag for catalog ingestion
	ingestFile := flag.String("ingest", "", "Replace the movie catalog with the Markdown table in `file` and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	sugar, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer sugar.Sync()

	if !cfg.DotEnvLoaded {
		sugar.Infow("No .env file loaded, using process environment")
	}
	if cfg.JWTSecretGenerated {
		sugar.Warnw("JWT_SECRET not set, session tokens will not survive a restart")
	}

	// Initialize the catalog store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	// Replace the catalog and exit; os.Exit skips defers, so close by hand
	if *ingestFile != "" {
		code := runIngest(dbStore, *ingestFile, sugar)
		dbStore.Close()
		sugar.Sync()
		os.Exit(code)
	}

	// First start on an empty database gets the sample catalog
	seeded, err := dbStore.SeedCatalog()
	if err != nil {
		sugar.Fatalw("Failed to seed movie catalog", "error", err)
	}
	if seeded > 0 {
		sugar.Infow("Seeded sample movie catalog", "movies", seeded)
	}

	// Initialize the LLM backend; no credential means no generator
	generator, closeGenerator, err := core.NewGenerator(context.Background(), cfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize LLM backend", "provider", cfg.LLMProvider, "error", err)
	}
	defer closeGenerator()

	// Initialize services
	llmService := core.NewLLMService(generator, cfg.Temperature, sugar)
	chatService := core.NewChatService(llmService, dbStore, sugar)

	// Initialize API handler and router
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, auth.DefaultTokenTTL)
	apiHandler := api.NewAPIHandler(chatService, tokens, cfg.Locale(), cfg.AllowedOrigins, sugar)
	router := api.NewRouter(apiHandler, sugar)

	// Start HTTP server. POST /api/session/messages lifts these deadlines
	// for itself, since a completion has no time limit.
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // completions can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sugar.Infow("Starting server", "addr", serverAddr, "provider", cfg.LLMProvider, "llm_configured", llmService.Configured(), "locale", cfg.Locale())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("Could not listen", "addr", serverAddr, "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Infow("Shutting down server")

	// Give active connections time to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("Server forced to shutdown", "error", err)
		return
	}
	sugar.Infow("Server exited gracefully")
}

func runIngest(dbStore *store.SQLiteStore, path string, sugar *zap.SugaredLogger) int {
	f, err := os.Open(path)
	if err != nil {
		sugar.Errorw("Failed to open catalog file", "file", path, "error", err)
		return 1
	}
	defer f.Close()

	n, err := dbStore.IngestCatalog(f)
	if err != nil {
		sugar.Errorw("Catalog ingestion failed", "file", path, "error", err)
		return 1
	}
	sugar.Infow("Catalog ingestion complete", "file", path, "movies", n)
	return 0
}
