// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/avelasko/research-inbox/internal/corpus"
	"github.com/avelasko/research-inbox/internal/httpapi"
	"github.com/avelasko/research-inbox/internal/logging"
	"github.com/avelasko/research-inbox/internal/mindmap"
	"github.com/avelasko/research-inbox/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research inbox HTTP API",
	Long: `Serve starts the HTTP API: inbox search, URL research, mind maps, and
cache diagnostics. The server consults the local corpus before live
APIs and shuts down gracefully on SIGINT or SIGTERM.

With --refresh-cron, the configured refresh topics are re-ingested into
the corpus on the given cron schedule while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().String("refresh-cron", "", `cron schedule for corpus refresh, e.g. "0 6 * * *"`)

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if spec, _ := cmd.Flags().GetString("refresh-cron"); spec != "" {
		cfg.Server.RefreshCron = spec
	}

	log := logging.New(cfg.Server.LogLevel)

	store, err := openCorpus(cfg)
	if err != nil {
		log.Warn("corpus disabled", "error", err)
	}
	if store != nil {
		defer store.Close()
	}

	orch := newOrchestrator(cfg, store)
	mongoCache := newMongoCache(cfg)

	server := &httpapi.Server{
		Orchestrator:   orch,
		URLResearch:    newURLService(cfg, orch, mongoCache, log),
		MindMap:        &mindmap.Generator{Client: newClaude(cfg)},
		Log:            log,
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if mongoCache != nil {
		server.Cache = mongoCache
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.RefreshCron != "" {
		stopRefresh, err := scheduleRefresh(cfg, store, log)
		if err != nil {
			return err
		}
		defer stopRefresh()
	}

	return server.Serve(ctx, cfg.Server.Addr)
}

// scheduleRefresh re-ingests the configured topics on the cron schedule.
// Refresh progress lines are discarded; outcomes go to the structured log.
func scheduleRefresh(cfg types.Config, store *corpus.Store, log *slog.Logger) (func(), error) {
	if store == nil {
		log.Warn("refresh cron ignored: corpus is disabled")
		return func() {}, nil
	}
	if len(cfg.Server.RefreshTopics) == 0 {
		log.Warn("refresh cron ignored: no refresh topics configured")
		return func() {}, nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.Server.RefreshCron, func() {
		sum, err := store.Ingest(context.Background(), cfg.Server.RefreshTopics, ingestSources(cfg), io.Discard)
		if err != nil {
			log.Error("corpus refresh failed", "error", err)
			return
		}
		log.Info("corpus refreshed",
			"stored", sum.Stored, "skipped", sum.Skipped, "failed", sum.Failed)
	})
	if err != nil {
		return nil, fmt.Errorf("parsing refresh cron %q: %w", cfg.Server.RefreshCron, err)
	}

	c.Start()
	log.Info("corpus refresh scheduled", "cron", cfg.Server.RefreshCron, "topics", len(cfg.Server.RefreshTopics))
	return func() { c.Stop() }, nil
}
