package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/vamoapp/vamo/api"
	dbfs "github.com/vamoapp/vamo/db"
	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/internal/db"
	"github.com/vamoapp/vamo/pkg/ollama"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)
	log.Printf("Starting vamo server version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open database connection and apply pending migrations
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Generation client for classification and offers
	gen, err := ollama.NewDefaultClient(ollama.Config{
		BaseURL:                 cfg.Ollama.BaseURL,
		Timeout:                 cfg.Ollama.Timeout,
		Retries:                 cfg.Ollama.Retries,
		Backoff:                 cfg.Ollama.Backoff,
		CircuitFailureThreshold: cfg.Ollama.CircuitFailureThreshold,
		CircuitReset:            cfg.Ollama.CircuitReset,
	})
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}

	handler, err := api.SetupRoutes(cfg, version, buildTime, database, gen)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := gen.Close(); err != nil {
		log.Printf("Error closing generation client: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
