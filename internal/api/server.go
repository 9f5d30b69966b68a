package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adelsaramii/verdict/internal/casefile"
	"github.com/adelsaramii/verdict/internal/decision"
	"github.com/adelsaramii/verdict/internal/domain"
	"github.com/adelsaramii/verdict/internal/metrics"
	"github.com/adelsaramii/verdict/internal/nlp"
	"github.com/adelsaramii/verdict/internal/policy"
	"github.com/adelsaramii/verdict/internal/rules"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.SignalCache, bus domain.EventBus, engine *rules.Engine, processor *decision.Processor, policies *policy.Store, catalog *casefile.Catalog, adapter *nlp.Adapter, collector *metrics.Collector, version string) *Server {
	handler := NewHandler(repo, cache, bus, engine, processor, policies, catalog, adapter, collector, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)                  // CORS for browser clients
	router.Use(RecoverMiddleware)               // Recover from panics
	router.Use(TracingMiddleware)               // OpenTelemetry tracing
	router.Use(LoggingMiddleware)               // Request logging
	router.Use(MetricsMiddleware(collector))    // Prometheus request metrics
	router.Use(middleware.RealIP)               // Extract real IP
	router.Use(middleware.Compress(5))          // Gzip compression

	// Health and observability
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	router.Method(http.MethodGet, "/metrics", collector.Handler())

	// Decision scoring
	router.Post("/evaluate", handler.Evaluate)
	router.Get("/decisions/{id}", handler.GetDecision)

	// Manual review queue
	router.Get("/reviews", handler.ListReviews)
	router.Post("/reviews/{id}/done", handler.CompleteReview)

	// Case catalog with live suggestions
	router.Get("/cases", handler.ListCases)
	router.Get("/cases/{caseID}", handler.GetCase)

	// Text signal extraction
	router.Post("/nlp/extract", handler.ExtractText)

	// Business impact model
	router.Get("/impact", handler.Impact)

	// Policy management
	router.Get("/policy", handler.GetPolicy)
	router.Post("/policy/toggle", handler.TogglePolicyRule)
	router.Post("/policy/weight", handler.UpdatePolicyWeight)
	router.Post("/policy/preset", handler.ApplyPolicyPreset)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
