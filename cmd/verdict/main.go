// Verdict - Refund decisions that deploy in 60 seconds.
// Copyright (c) 2025 Verdict contributors
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adelsaramii/verdict/internal/api"
	"github.com/adelsaramii/verdict/internal/bus"
	"github.com/adelsaramii/verdict/internal/cache"
	"github.com/adelsaramii/verdict/internal/casefile"
	"github.com/adelsaramii/verdict/internal/config"
	"github.com/adelsaramii/verdict/internal/decision"
	"github.com/adelsaramii/verdict/internal/domain"
	"github.com/adelsaramii/verdict/internal/metrics"
	"github.com/adelsaramii/verdict/internal/nlp"
	"github.com/adelsaramii/verdict/internal/policy"
	"github.com/adelsaramii/verdict/internal/repository"
	"github.com/adelsaramii/verdict/internal/rules"
	"github.com/adelsaramii/verdict/internal/tracing"
	"github.com/adelsaramii/verdict/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initial structured logger; reconfigured once config is loaded
	setupLogger(domain.LoggingConfig{Level: "info", Format: "json"})

	slog.Info("starting verdict",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"extractor", cfg.Extractor.Backend,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Tracing
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	if cfg.Tracing.Enabled {
		slog.Info("tracing initialized", "endpoint", cfg.Tracing.Endpoint)
	}

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Signal Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Metrics
	collector := metrics.NewCollector(nil)

	// Load the case catalog
	catalog, err := casefile.Load(cfg.Catalog.Path, slog.Default())
	if err != nil {
		slog.Error("failed to load case catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("case catalog loaded", "path", cfg.Catalog.Path, "cases", catalog.Len())

	if cfg.Catalog.Watch {
		go func() {
			if err := catalog.Watch(ctx); err != nil {
				slog.Error("case file watcher failed", "error", err)
			}
		}()
	}

	// Initialize Policy Store
	policies := policy.NewStore()
	slog.Info("policy store initialized", "rules", len(domain.PolicyCodes))

	// Initialize Rule Engine
	engine, err := rules.NewEngine(100)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()
	slog.Info("rule engine initialized", "rules_count", engine.RulesCount())

	// Initialize Text Signal Extraction
	extractor := newExtractor(cfg.Extractor)
	if extractor != nil {
		slog.Info("text extractor initialized", "backend", extractor.Name())
	} else {
		slog.Info("no text extractor configured, using fallback signals")
	}
	adapter := nlp.NewAdapter(extractor, cacheImpl,
		time.Duration(cfg.Extractor.TimeoutSecs)*time.Second, slog.Default())

	// Initialize Decision Processor
	processor := decision.NewProcessor()

	// Initialize the review Worker
	reviewWorker := worker.NewWorker(busImpl, repo, collector)
	if err := reviewWorker.Start(); err != nil {
		slog.Error("failed to start review worker", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine,
		processor, policies, catalog, adapter, collector, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("verdict is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the review worker first so in-flight reviews land
	if err := reviewWorker.Stop(); err != nil {
		slog.Error("failed to stop review worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("failed to flush traces", "error", err)
	}

	slog.Info("verdict shutdown complete")
}

// setupLogger installs the global slog logger. VERDICT_DEBUG=true forces
// debug level regardless of the configured level.
func setupLogger(cfg domain.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if os.Getenv("VERDICT_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// newExtractor builds the configured extractor backend. A nil return
// means extraction degrades to fallback signals.
func newExtractor(cfg domain.ExtractorConfig) nlp.Extractor {
	switch cfg.Backend {
	case "openai":
		return nlp.NewOpenAIExtractor(os.Getenv("OPENAI_API_KEY"), cfg.Model, cfg.BaseURL)
	case "gemini":
		return nlp.NewGeminiExtractor(os.Getenv("GEMINI_API_KEY"), cfg.Model)
	default:
		return nil
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               ⚖️  VERDICT                  ║")
	fmt.Println("  ║      Refund Decision Scoring Engine        ║")
	fmt.Println("  ║     Every complaint gets a fair call.      ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /evaluate            - Score a refund complaint")
	fmt.Println("    GET  /decisions/{id}      - Get a decision by ID")
	fmt.Println("    GET  /reviews             - List pending manual reviews")
	fmt.Println("    POST /reviews/{id}/done   - Complete a manual review")
	fmt.Println("    GET  /cases               - List catalog cases with suggestions")
	fmt.Println("    GET  /cases/{id}          - Get one catalog case")
	fmt.Println("    POST /nlp/extract         - Extract signals from complaint text")
	fmt.Println("    GET  /impact              - Annual savings projection")
	fmt.Println("    GET  /policy              - List policy rules")
	fmt.Println("    POST /policy/toggle       - Enable or disable a policy rule")
	fmt.Println("    POST /policy/weight       - Set a policy rule weight")
	fmt.Println("    POST /policy/preset       - Apply a policy preset")
	fmt.Println("    GET  /metrics             - Prometheus metrics")
	fmt.Println("    GET  /health              - Health check")
	fmt.Println()
}
