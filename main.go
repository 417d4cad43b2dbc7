package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/pharmasearch/config"
	"github.com/giygas/pharmasearch/data"
	"github.com/giygas/pharmasearch/handlers"
	"github.com/giygas/pharmasearch/health"
	"github.com/giygas/pharmasearch/knowledgegraph"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/queryenhancer"
	"github.com/giygas/pharmasearch/relevance"
	"github.com/giygas/pharmasearch/scheduler"
	"github.com/giygas/pharmasearch/seedfile"
	"github.com/giygas/pharmasearch/server"
	"github.com/giygas/pharmasearch/validation"
)

func main() {
	// Read the .env file, from the working directory or next to the binary
	if err := godotenv.Load(); err != nil {
		ex, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		if err := os.Chdir(filepath.Dir(ex)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to change directory: %v\n", err)
			os.Exit(1)
		}
		_ = godotenv.Load()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := run(quit); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run starts the API and blocks until quit fires or the server fails.
// Every deferred cleanup, the log file included, runs before it returns.
func run(quit <-chan os.Signal) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	logging.Info("Starting pharmasearch", "env", cfg.Env.String(), "address", cfg.Address, "port", cfg.Port)

	// Knowledge graph: curated seed plus the optional seed file
	var extra []knowledgegraph.Seed
	if cfg.SeedFile != "" {
		f, err := seedfile.Load(cfg.SeedFile)
		if err != nil {
			logging.Error("Failed to load seed file", "path", cfg.SeedFile, "error", err)
			return fmt.Errorf("failed to load seed file: %w", err)
		}
		extra = append(extra, f.Seed())
	}

	graph, err := knowledgegraph.NewSeeded(extra,
		knowledgegraph.WithMinUpdateConfidence(cfg.MinUpdateConfidence),
		knowledgegraph.WithMaxTraversalDepth(cfg.MaxTraversalDepth),
		knowledgegraph.WithDefaultMaxResults(cfg.DefaultMaxResults),
	)
	if err != nil {
		logging.Error("Failed to build knowledge graph", "error", err)
		return fmt.Errorf("failed to build knowledge graph: %w", err)
	}

	statsContainer := data.NewStatsContainer()
	statsContainer.SetServerStartTime(time.Now())

	refreshInterval := time.Duration(cfg.AnalyticsRefreshMinutes) * time.Minute
	analytics := scheduler.NewScheduler(graph, statsContainer, refreshInterval)
	if err := analytics.Start(); err != nil {
		logging.Error("Failed to start analytics scheduler", "error", err)
		return fmt.Errorf("failed to start analytics scheduler: %w", err)
	}
	defer analytics.Stop()

	if cfg.WatchSeedFile {
		watcher, err := seedfile.NewWatcher(cfg.SeedFile, graph)
		if err != nil {
			logging.Error("Failed to watch seed file", "path", cfg.SeedFile, "error", err)
			return fmt.Errorf("failed to watch seed file: %w", err)
		}
		defer watcher.Close()
	}

	handler := handlers.NewHTTPHandler(
		graph,
		queryenhancer.NewEnhancer(graph),
		relevance.NewScorer(graph),
		statsContainer,
		validation.NewEntityValidator(),
		health.NewHealthChecker(graph, statsContainer, refreshInterval),
	)
	srv := server.NewServer(cfg, handler)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serverErr:
		logging.Error("Server failed to start", "error", err)
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
	return nil
}
