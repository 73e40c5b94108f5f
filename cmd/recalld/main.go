// Recalld is a personal-notes question answering daemon.
//
// It keeps user notes indexed in a vector store and answers questions over
// them: a chat request embeds the question, retrieves the caller's most
// similar notes, and grounds an LLM answer in that evidence.
//
// Configuration is loaded from a YAML file with environment overrides; a
// .env file in the working directory is honored.
//
// Usage:
//
//	# Start server with defaults
//	recalld
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9090 APP_OFFLINE=true recalld
//
//	# Explicit config file
//	recalld -config /etc/recalld/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/chat"
	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/generation"
	httpserver "github.com/fyrsmithlabs/recalld/internal/http"
	"github.com/fyrsmithlabs/recalld/internal/indexer"
	"github.com/fyrsmithlabs/recalld/internal/logging"
	"github.com/fyrsmithlabs/recalld/internal/notes"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
	"github.com/fyrsmithlabs/recalld/internal/telemetry"
	"github.com/fyrsmithlabs/recalld/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  recalld            Start the recalld daemon\n")
			fmt.Fprintf(os.Stderr, "  recalld version    Show version information\n")
			os.Exit(1)
		}
	}

	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("recalld by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the recalld server and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting recalld",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("offline", cfg.App.Offline),
		zap.String("vector_provider", cfg.VectorStore.Provider))

	tel, err := telemetry.New(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	index, err := vectorstore.NewIndex(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing vector index: %w", err)
	}
	defer index.Close()

	embRegistry, err := embeddings.NewRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing embedding providers: %w", err)
	}
	defer embRegistry.Close()

	genRegistry, err := generation.NewRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing generators: %w", err)
	}
	defer genRegistry.Close()

	notesPath, err := config.ExpandPath(cfg.Notes.Path)
	if err != nil {
		return fmt.Errorf("expanding notes path: %w", err)
	}
	store, err := notes.NewStore(notesPath)
	if err != nil {
		return fmt.Errorf("initializing note store: %w", err)
	}
	defer store.Close()

	pipeline := indexer.NewPipeline(embRegistry, index, logger)
	engine := retrieval.NewEngine(embRegistry, index, cfg.App.TopK, logger)
	orchestrator := chat.NewOrchestrator(engine, genRegistry, cfg, logger)

	srv, err := httpserver.NewServer(orchestrator, store, pipeline, logger, &httpserver.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		DefaultMode: cfg.App.DefaultMode,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	return errors.Join(errs...)
}
