package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/colsearch/api"
	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/internal/engine"
	"github.com/gcbaptista/colsearch/internal/jobs"
	"github.com/gcbaptista/colsearch/internal/logging"
	"github.com/gcbaptista/colsearch/internal/metrics"
)

func main() {
	var (
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
		configPath = flag.String("config", "", "Path to a YAML config file")
		port       = flag.Int("port", 0, "Port to run the server on (overrides config)")
		dataDir    = flag.String("data-dir", "", "Directory to store snapshots (overrides config)")
	)

	flag.Parse()

	if *help {
		fmt.Printf("colsearch - an in-memory column store with inverted indexes and a query language\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                               # Start with defaults on port 8080\n", os.Args[0])
		fmt.Printf("  %s --config colsearch.yaml       # Load settings from a file\n", os.Args[0])
		fmt.Printf("  %s --port 9000 --data-dir /tmp/db\n", os.Args[0])
		return
	}

	if *version {
		fmt.Printf("colsearch v1.0.0\n")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	logger, closeLogs := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
	})
	defer closeLogs()

	if err := run(cfg, logger); err != nil {
		logger.Error("colsearch stopped with error", "error", err)
		closeLogs()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	jobManager := jobs.NewManager(cfg.Jobs.MaxWorkers, m)
	jobManager.Start()
	defer jobManager.Stop()

	db := engine.New(engine.Options{
		DataDir:  cfg.Storage.DataDir,
		Compress: cfg.Storage.Compress,
		Snippet:  cfg.Snippet,
		Metrics:  m,
		Jobs:     jobManager,
	})
	if cfg.Storage.LoadOnStart {
		switch err := db.Load(); {
		case err == nil:
			logger.Info("snapshot loaded", "path", db.SnapshotPath(), "tables", len(db.ListTables()))
		case errors.Is(err, os.ErrNotExist):
			logger.Info("no snapshot found, starting empty", "path", db.SnapshotPath())
		default:
			return fmt.Errorf("loading snapshot: %w", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestSizeLimitMiddleware(cfg.Server.MaxRequestBytes),
		api.CORSMiddleware(),
		api.LoggingMiddleware(logger),
	)
	api.SetupRoutes(router, db, m)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("colsearch listening", "addr", server.Addr, "data_dir", cfg.Storage.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// A database restored on start is written back on exit.
	if cfg.Storage.LoadOnStart {
		if err := db.Save(); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		logger.Info("snapshot saved", "path", db.SnapshotPath())
	}
	logger.Info("colsearch stopped")
	return nil
}
