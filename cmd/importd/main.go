package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/rkotak/bookimport/internal/ai"
	"github.com/rkotak/bookimport/internal/classify"
	"github.com/rkotak/bookimport/internal/config"
	"github.com/rkotak/bookimport/internal/filestore"
	"github.com/rkotak/bookimport/internal/importer"
	"github.com/rkotak/bookimport/internal/job"
	"github.com/rkotak/bookimport/internal/logging"
	"github.com/rkotak/bookimport/internal/mapping"
	"github.com/rkotak/bookimport/internal/web"
)

func main() {
	// Load .env if present (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	if err := job.EnsureSchema(ctx, pool); err != nil {
		slog.Error("failed to ensure job schema", "error", err)
		os.Exit(1)
	}
	if err := importer.EnsureSchema(ctx, pool); err != nil {
		slog.Error("failed to ensure import target schema", "error", err)
		os.Exit(1)
	}

	files, err := filestore.New(cfg.Files.Dir)
	if err != nil {
		slog.Error("failed to open file store", "dir", cfg.Files.Dir, "error", err)
		os.Exit(1)
	}

	aiClient, err := ai.New(ai.Config{
		APIKey:        cfg.AI.APIKey,
		BaseURL:       cfg.AI.BaseURL,
		Model:         cfg.AI.Model,
		VerifierModel: cfg.AI.VerifierModel,
		MaxAttempts:   cfg.AI.MaxAttempts,
		RetryBackoff:  cfg.AI.RetryBackoff,
		Timeout:       cfg.AI.Timeout,
	})
	if err != nil {
		slog.Error("failed to create AI client", "error", err)
		os.Exit(1)
	}
	if aiClient == nil {
		slog.Info("AI disabled, classification and mapping run on heuristics only")
	} else {
		slog.Info("AI enabled", "model", cfg.AI.Model, "verifier", cfg.AI.VerifierModel != "")
	}

	store := job.NewPgStore(pool)
	orch := &job.Orchestrator{
		Store: store,
		Files: files,
		Builder: &job.Builder{
			Files:      files,
			Classifier: &classify.Classifier{AI: aiClient},
			Mapper:     &mapping.Mapper{AI: aiClient},
		},
		Importers: importer.Default(),
		DB:        pool,
		ChunkSize: cfg.Job.ChunkSize,
	}
	runner := job.NewRunner(store, orch, cfg.Job.PollInterval)

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		runner.Start(runnerCtx)
	}()

	server := web.NewServer(cfg, store, files, orch, runner)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stopRunner()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		<-runnerDone
	}()

	slog.Info("starting server", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
