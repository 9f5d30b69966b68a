package worker

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/adelsaramii/verdict/internal/bus"
	"github.com/adelsaramii/verdict/internal/domain"
	"github.com/adelsaramii/verdict/internal/metrics"
	"github.com/adelsaramii/verdict/internal/repository"
)

func newTestRepository(t *testing.T) domain.Repository {
	t.Helper()

	f, err := os.CreateTemp("", "verdict-worker-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp db: %v", err)
	}
	f.Close()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: f.Name(),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
		os.Remove(f.Name())
	})

	return repo
}

// waitForPendingReviews polls until the pending queue reaches want entries.
func waitForPendingReviews(t *testing.T, repo domain.Repository, want int) []*domain.Review {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		reviews, err := repo.ListPendingReviews(context.Background())
		if err != nil {
			t.Fatalf("ListPendingReviews failed: %v", err)
		}
		if len(reviews) == want {
			return reviews
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %d pending reviews", want)
	return nil
}

func TestWorker(t *testing.T) {
	t.Run("PersistsQueuedReview", func(t *testing.T) {
		eventBus := bus.NewChannelBus(100)
		defer eventBus.Close()
		repo := newTestRepository(t)
		collector := metrics.NewCollector(nil)

		w := NewWorker(eventBus, repo, collector)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer w.Stop()

		review := domain.Review{
			ID:         "review-001",
			CaseID:     "CASE0042",
			DecisionID: "eval-001",
			Score:      67.5,
			Band:       domain.ReviewBandBorderlineHigh,
			CreatedAt:  time.Now().UTC(),
		}
		payload, _ := json.Marshal(review)
		if err := eventBus.Publish(context.Background(), domain.TopicReviewQueued, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		reviews := waitForPendingReviews(t, repo, 1)

		got := reviews[0]
		if got.ID != "review-001" {
			t.Errorf("expected review ID 'review-001', got '%s'", got.ID)
		}
		if got.CaseID != "CASE0042" {
			t.Errorf("expected case ID 'CASE0042', got '%s'", got.CaseID)
		}
		if got.Score != 67.5 {
			t.Errorf("expected score 67.5, got %v", got.Score)
		}
		if got.Band != domain.ReviewBandBorderlineHigh {
			t.Errorf("expected band '%s', got '%s'", domain.ReviewBandBorderlineHigh, got.Band)
		}
		if got.Status != domain.ReviewStatusPending {
			t.Errorf("expected pending status, got '%s'", got.Status)
		}

		assertReviewsQueuedCount(t, collector, 1)
	})

	t.Run("FallsBackToEnvelopeID", func(t *testing.T) {
		eventBus := bus.NewChannelBus(100)
		defer eventBus.Close()
		repo := newTestRepository(t)

		w := NewWorker(eventBus, repo, nil)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer w.Stop()

		payload, _ := json.Marshal(domain.Review{
			CaseID: "CASE0001",
			Score:  38.0,
			Band:   domain.ReviewBandBorderlineLow,
		})
		if err := eventBus.Publish(context.Background(), domain.TopicReviewQueued, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		reviews := waitForPendingReviews(t, repo, 1)
		if reviews[0].ID == "" {
			t.Error("expected review ID to fall back to the message ID")
		}
	})

	t.Run("SurvivesMalformedPayload", func(t *testing.T) {
		eventBus := bus.NewChannelBus(100)
		defer eventBus.Close()
		repo := newTestRepository(t)

		w := NewWorker(eventBus, repo, nil)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer w.Stop()

		if err := eventBus.Publish(context.Background(), domain.TopicReviewQueued, []byte("not json")); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		payload, _ := json.Marshal(domain.Review{
			ID:     "review-good",
			CaseID: "CASE0002",
			Score:  66.0,
			Band:   domain.ReviewBandBorderlineHigh,
		})
		if err := eventBus.Publish(context.Background(), domain.TopicReviewQueued, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		reviews := waitForPendingReviews(t, repo, 1)
		if reviews[0].ID != "review-good" {
			t.Errorf("expected the valid review to persist, got '%s'", reviews[0].ID)
		}
	})

	t.Run("StopUnsubscribes", func(t *testing.T) {
		eventBus := bus.NewChannelBus(100)
		defer eventBus.Close()
		repo := newTestRepository(t)

		w := NewWorker(eventBus, repo, nil)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}

		payload, _ := json.Marshal(domain.Review{ID: "review-late", CaseID: "CASE0003"})
		eventBus.Publish(context.Background(), domain.TopicReviewQueued, payload)

		time.Sleep(50 * time.Millisecond)

		reviews, err := repo.ListPendingReviews(context.Background())
		if err != nil {
			t.Fatalf("ListPendingReviews failed: %v", err)
		}
		if len(reviews) != 0 {
			t.Errorf("expected no reviews after stop, got %d", len(reviews))
		}
	})
}

// assertReviewsQueuedCount reads the counter back through the registry.
func assertReviewsQueuedCount(t *testing.T, collector *metrics.Collector, want float64) {
	t.Helper()

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "verdict_reviews_queued_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if got := m.GetCounter().GetValue(); got != want {
				t.Errorf("expected %v reviews queued, got %v", want, got)
			}
			return
		}
	}
	t.Error("verdict_reviews_queued_total not found in registry")
}
