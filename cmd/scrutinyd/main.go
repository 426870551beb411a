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
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/scrutiny/internal/baselib/actor"
	"github.com/roasbeef/scrutiny/internal/build"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/db"
	"github.com/roasbeef/scrutiny/internal/llm"
	"github.com/roasbeef/scrutiny/internal/mcp"
	"github.com/roasbeef/scrutiny/internal/review"
	"github.com/roasbeef/scrutiny/internal/store"
	"github.com/roasbeef/scrutiny/internal/web"
)

// shutdownTimeout bounds graceful teardown of the actor system and the web
// server.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scrutinyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath = flag.String("db", "",
			"Path to SQLite database (default "+
				"~/.scrutiny/scrutiny.db)")
		webAddr = flag.String("web", ":8080",
			"Web server address (empty to disable)")
		webOnly = flag.Bool("web-only", false,
			"Run the web server only (no MCP stdio)")
		configPath = flag.String("config", "",
			"Path to YAML config file")
		logLevel = flag.String("loglevel", "info",
			"Log level (trace, debug, info, warn, error)")
		logDir = flag.String("logdir", "",
			"Directory for rotating log files (empty for "+
				"console only)")
	)
	flag.Parse()

	_, logCleanup, err := build.InitLogging(*logDir, *logLevel)
	if err != nil {
		return err
	}
	defer logCleanup()

	log := slog.With("component", "scrutinyd")
	log.Info("Starting scrutinyd", "version", build.Version())

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	path := *dbPath
	if path == "" {
		path, err = db.DefaultDBPath()
		if err != nil {
			return err
		}
	}

	reviewStore, err := store.Open(path)
	if err != nil {
		return err
	}
	defer reviewStore.Close()

	log.Info("Database open", "path", path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reviews left mid-flight by a previous run can never finish; mark
	// them failed so they do not linger as active forever.
	if err := failOrphanedReviews(ctx, reviewStore, log); err != nil {
		return err
	}

	// Build the AI transport. A config without a provider is valid: the
	// daemon serves quick-path reviews only.
	var reviewer llm.Reviewer
	client, err := llm.New(cfg)
	switch {
	case err == nil:
		reviewer = client
		log.Info("AI provider configured",
			"provider", client.Name(), "model", client.Model())

	case errors.Is(err, llm.ErrNoProvider):
		log.Info("No AI provider configured, full reviews will " +
			"degrade to quick scoring")

	default:
		return err
	}

	svc := review.NewService(review.ServiceConfig{
		Cfg:      cfg,
		Store:    reviewStore,
		Reviewer: reviewer,
	})
	svc.Start(ctx)

	actorSystem := actor.NewActorSystem()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer shutdownCancel()
		if err := actorSystem.Shutdown(shutdownCtx); err != nil {
			log.Error("Actor system shutdown incomplete",
				"err", err)
		}
	}()

	reviewRef := actor.RegisterWithSystem(
		actorSystem, "review-service", review.ReviewServiceKey, svc,
	)
	gateway := web.NewActorGateway(reviewRef)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("Shutting down")
		cancel()
	}()

	if *webAddr != "" {
		webCfg := web.DefaultConfig()
		webCfg.Addr = *webAddr

		webServer := web.NewServer(webCfg, gateway)

		go func() {
			err := webServer.Start()
			if err != nil &&
				!errors.Is(err, http.ErrServerClosed) {

				log.Error("Web server error", "err", err)
				cancel()
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(
				context.Background(), shutdownTimeout,
			)
			defer shutdownCancel()
			if err := webServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Web server shutdown failed",
					"err", err)
			}
		}()
	}

	if *webOnly {
		log.Info("Running in web-only mode")
		<-ctx.Done()
		return nil
	}

	log.Info("Starting MCP server on stdio")
	mcpServer := mcp.NewServer(gateway)
	err = mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// failOrphanedReviews marks reviews that were still running when a previous
// daemon instance exited.
func failOrphanedReviews(ctx context.Context, s store.ReviewStore,
	log *slog.Logger) error {

	orphans, err := s.ListActiveReviews(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active reviews: %w", err)
	}
	if len(orphans) == 0 {
		return nil
	}

	for _, rec := range orphans {
		err := s.UpdateReviewState(
			ctx, rec.ID, string(review.StateFailed),
		)
		if err != nil {
			return fmt.Errorf("failed to fail orphaned review "+
				"%s: %w", rec.ID, err)
		}
	}

	log.Warn("Failed orphaned reviews from previous run",
		"count", len(orphans))

	return nil
}
