package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adelsaramii/verdict/internal/casefile"
	"github.com/adelsaramii/verdict/internal/decision"
	"github.com/adelsaramii/verdict/internal/domain"
	"github.com/adelsaramii/verdict/internal/impact"
	"github.com/adelsaramii/verdict/internal/metrics"
	"github.com/adelsaramii/verdict/internal/nlp"
	"github.com/adelsaramii/verdict/internal/policy"
	"github.com/adelsaramii/verdict/internal/rules"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.SignalCache
	bus       domain.EventBus
	engine    *rules.Engine
	processor *decision.Processor
	policies  *policy.Store
	catalog   *casefile.Catalog
	adapter   *nlp.Adapter
	collector *metrics.Collector
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.SignalCache, bus domain.EventBus, engine *rules.Engine, processor *decision.Processor, policies *policy.Store, catalog *casefile.Catalog, adapter *nlp.Adapter, collector *metrics.Collector, version string) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		engine:    engine,
		processor: processor,
		policies:  policies,
		catalog:   catalog,
		adapter:   adapter,
		collector: collector,
		version:   version,
	}
}

// Evaluate handles POST /evaluate requests. The body is a case; the
// response is the persisted evaluation.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c domain.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := c.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if c.ID == "" {
		c.ID = "case-" + uuid.New().String()
	}

	evaluation, extraction, err := h.evaluateCase(r, &c)
	if err != nil {
		slog.Error("rule evaluation failed", "case_id", c.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "rule evaluation failed",
		})
		return
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("case.id", c.ID),
		attribute.String("decision.action", evaluation.Action),
	)

	// Save the evaluation. A storage hiccup is logged but the caller
	// still gets the decision.
	if h.repo != nil {
		if err := h.repo.SaveEvaluation(ctx, evaluation); err != nil {
			slog.Error("failed to save evaluation",
				"evaluation_id", evaluation.ID,
				"error", err,
			)
		}
	}

	h.publishDecision(ctx, evaluation, extraction)

	if h.collector != nil {
		h.collector.RecordEvaluation(evaluation.Action)
	}

	slog.Info("case evaluated",
		"case_id", c.ID,
		"action", evaluation.Action,
		"score", evaluation.Score,
		"signal_source", evaluation.SignalSource,
		"trace_id", GetTraceID(ctx),
	)

	writeJSON(w, http.StatusOK, evaluation)
}

// evaluateCase runs extraction, rule scoring, and classification for one
// case. It does not persist or publish anything.
func (h *Handler) evaluateCase(r *http.Request, c *domain.Case) (*domain.Evaluation, domain.Extraction, error) {
	ctx := r.Context()

	extraction := domain.Extraction{Source: domain.SignalSourceNone}
	hasSignals := false
	if strings.TrimSpace(c.ComplaintText) != "" {
		ex, err := h.adapter.Extract(ctx, c.ComplaintText)
		if err == nil {
			extraction = ex
			hasSignals = true
			h.recordExtraction(ex)
		}
	}

	contributions, err := h.engine.EvaluateAll(ctx, &rules.EvaluateInput{
		Case:       c,
		Signals:    extraction.Signals,
		HasSignals: hasSignals,
		Policy:     h.policies.Snapshot(),
	})
	if err != nil {
		return nil, extraction, err
	}

	evaluation := h.processor.Process(ctx, &decision.DecisionInput{
		CaseID:        c.ID,
		Contributions: contributions,
		SignalSource:  extraction.Source,
	})
	return evaluation, extraction, nil
}

// publishDecision emits the decision events. Publish failures are logged,
// never surfaced to the caller.
func (h *Handler) publishDecision(ctx context.Context, evaluation *domain.Evaluation, extraction domain.Extraction) {
	if h.bus == nil {
		return
	}

	payload, _ := json.Marshal(evaluation)
	if err := h.bus.Publish(ctx, domain.TopicDecisionCompleted, payload); err != nil {
		slog.Error("failed to publish decision",
			"evaluation_id", evaluation.ID,
			"error", err,
		)
	}

	if extraction.Source == domain.SignalSourceExtractor {
		signalsPayload, _ := json.Marshal(map[string]any{
			"case_id": evaluation.CaseID,
			"signals": extraction.Signals,
			"source":  extraction.Source,
		})
		if err := h.bus.Publish(ctx, domain.TopicSignalsExtracted, signalsPayload); err != nil {
			slog.Error("failed to publish signals",
				"case_id", evaluation.CaseID,
				"error", err,
			)
		}
	}

	if evaluation.Action != domain.ActionManualReview {
		return
	}

	_, band := h.processor.Classify(evaluation.Score)
	review := domain.Review{
		ID:         uuid.New().String(),
		CaseID:     evaluation.CaseID,
		DecisionID: evaluation.ID,
		Score:      evaluation.Score,
		Band:       band,
		Status:     domain.ReviewStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	reviewPayload, _ := json.Marshal(review)
	if err := h.bus.Publish(ctx, domain.TopicReviewQueued, reviewPayload); err != nil {
		slog.Error("failed to publish review",
			"case_id", evaluation.CaseID,
			"error", err,
		)
	}
}

// recordExtraction counts an extraction and its cache outcome.
func (h *Handler) recordExtraction(extraction domain.Extraction) {
	if h.collector == nil {
		return
	}
	h.collector.RecordExtraction(extraction.Source)
	if extraction.Source == domain.SignalSourceCache {
		h.collector.RecordCacheHit()
	} else {
		h.collector.RecordCacheMiss()
	}
}

// GetDecision retrieves a stored evaluation by ID.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	evalID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	evaluation, err := h.repo.GetEvaluation(r.Context(), evalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "decision not found",
			})
			return
		}
		slog.Error("failed to get evaluation", "id", evalID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load decision",
		})
		return
	}

	writeJSON(w, http.StatusOK, evaluation)
}

// ListReviews returns the pending manual review queue, oldest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	reviews, err := h.repo.ListPendingReviews(r.Context())
	if err != nil {
		slog.Error("failed to list reviews", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load reviews",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// CompleteReview marks a queued review as handled.
func (h *Handler) CompleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.MarkReviewDone(r.Context(), reviewID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "review not found",
			})
			return
		}
		slog.Error("failed to complete review", "review_id", reviewID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to complete review",
		})
		return
	}

	slog.Info("review completed", "review_id", reviewID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Review %s completed", reviewID),
	})
}

// ListCases returns every catalog case with a live suggestion.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	demoOnly, _ := strconv.ParseBool(r.URL.Query().Get("demo_only"))

	cases := h.catalog.List(demoOnly)
	results := make([]domain.CaseWithSuggestion, 0, len(cases))
	for i := range cases {
		c := cases[i]
		suggestion, err := h.suggest(r, &c)
		if err != nil {
			slog.Error("failed to evaluate catalog case", "case_id", c.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to evaluate cases",
			})
			return
		}
		results = append(results, domain.CaseWithSuggestion{
			Case:       c,
			Suggestion: suggestion,
		})
	}

	writeJSON(w, http.StatusOK, results)
}

// GetCase returns one catalog case with a live suggestion.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")

	c, err := h.catalog.Get(caseID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("Case %s not found", caseID),
		})
		return
	}

	suggestion, err := h.suggest(r, &c)
	if err != nil {
		slog.Error("failed to evaluate catalog case", "case_id", c.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to evaluate case",
		})
		return
	}

	writeJSON(w, http.StatusOK, domain.CaseWithSuggestion{
		Case:       c,
		Suggestion: suggestion,
	})
}

// suggest evaluates a catalog case without persisting anything.
func (h *Handler) suggest(r *http.Request, c *domain.Case) (*domain.Suggestion, error) {
	evaluation, _, err := h.evaluateCase(r, c)
	if err != nil {
		return nil, err
	}
	return &domain.Suggestion{
		Action:     evaluation.Action,
		Confidence: evaluation.Confidence,
		Score:      evaluation.Score,
		Reasons:    evaluation.Reasons,
	}, nil
}

// ExtractRequest is the request body for POST /nlp/extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractText classifies complaint text into structured signals.
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	extraction, err := h.adapter.Extract(r.Context(), req.Text)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	h.recordExtraction(extraction)

	writeJSON(w, http.StatusOK, extraction.Signals)
}

// Impact returns the annual savings model with optional query overrides.
func (h *Handler) Impact(w http.ResponseWriter, r *http.Request) {
	params := impact.DefaultParams()

	q := r.URL.Query()
	if v := q.Get("orders_per_day"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.OrdersPerDay = f
		}
	}
	if v := q.Get("complaint_rate"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.ComplaintRate = f
		}
	}
	if v := q.Get("avg_order_value"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.AvgOrderValue = f
		}
	}
	if v := q.Get("current_refund_rate"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.CurrentRefundRate = f
		}
	}

	writeJSON(w, http.StatusOK, impact.Estimate(params))
}

// GetPolicy returns the current policy configuration.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": h.policies.List(),
	})
}

// PolicyToggleRequest is the request body for POST /policy/toggle.
type PolicyToggleRequest struct {
	RuleCode string `json:"rule_code"`
}

// TogglePolicyRule flips a policy rule on or off.
func (h *Handler) TogglePolicyRule(w http.ResponseWriter, r *http.Request) {
	var req PolicyToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	enabled, err := h.policies.Toggle(req.RuleCode)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
		return
	}

	slog.Info("policy rule toggled", "rule_code", req.RuleCode, "enabled", enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Rule %s toggled", req.RuleCode),
		"enabled": enabled,
	})
}

// PolicyWeightRequest is the request body for POST /policy/weight.
type PolicyWeightRequest struct {
	RuleCode string  `json:"rule_code"`
	Weight   float64 `json:"weight"`
}

// UpdatePolicyWeight sets a policy rule's weight.
func (h *Handler) UpdatePolicyWeight(w http.ResponseWriter, r *http.Request) {
	var req PolicyWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := h.policies.SetWeight(req.RuleCode, req.Weight); err != nil {
		var weightErr *domain.InvalidWeightError
		if errors.As(err, &weightErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
		return
	}

	slog.Info("policy rule weight updated", "rule_code", req.RuleCode, "weight", req.Weight)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Rule %s weight updated", req.RuleCode),
		"weight":  req.Weight,
	})
}

// PolicyPresetRequest is the request body for POST /policy/preset.
type PolicyPresetRequest struct {
	Preset string `json:"preset"`
}

// ApplyPolicyPreset applies a named policy preset.
func (h *Handler) ApplyPolicyPreset(w http.ResponseWriter, r *http.Request) {
	var req PolicyPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result, err := h.policies.ApplyPreset(req.Preset)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	slog.Info("policy preset applied", "preset", req.Preset, "changes", len(result.Changes))
	writeJSON(w, http.StatusOK, result)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"service": "verdict",
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
