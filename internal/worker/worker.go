// Package worker provides async consumers for the event bus.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/adelsaramii/verdict/internal/domain"
	"github.com/adelsaramii/verdict/internal/metrics"
)

// Worker drains review.queued events into the manual review queue. It runs
// on every tier: with the channel bus it decouples queue writes from the
// request path, with NATS it also picks up reviews published by other
// instances.
type Worker struct {
	bus       domain.EventBus
	repo      domain.Repository
	collector *metrics.Collector

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a review queue worker. The collector may be nil.
func NewWorker(bus domain.EventBus, repo domain.Repository, collector *metrics.Collector) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		repo:      repo,
		collector: collector,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes to the review queue topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicReviewQueued, w.handleReviewQueued)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", domain.TopicReviewQueued, err)
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("review worker started",
		"topic", domain.TopicReviewQueued,
	)
	return nil
}

// handleReviewQueued persists a queued review.
func (w *Worker) handleReviewQueued(ctx context.Context, msg *domain.Message) error {
	var review domain.Review
	if err := json.Unmarshal(msg.Payload, &review); err != nil {
		slog.Error("failed to parse review message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Fall back to the envelope ID for reviews published without one.
	if review.ID == "" {
		review.ID = msg.ID
	}

	if err := w.repo.SaveReview(ctx, &review); err != nil {
		slog.Error("failed to save review",
			"review_id", review.ID,
			"case_id", review.CaseID,
			"error", err,
		)
		return err
	}

	if w.collector != nil {
		w.collector.RecordReviewQueued()
	}

	slog.Info("review queued for manual handling",
		"review_id", review.ID,
		"case_id", review.CaseID,
		"score", review.Score,
		"band", review.Band,
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("review worker stopped")
	return nil
}
