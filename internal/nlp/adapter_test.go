package nlp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adelsaramii/verdict/internal/domain"
)

type fakeExtractor struct {
	calls   int
	signals domain.TextSignals
	err     error
	block   bool
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) (domain.TextSignals, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return domain.TextSignals{}, ctx.Err()
	}
	if f.err != nil {
		return domain.TextSignals{}, f.err
	}
	return f.signals, nil
}

func (f *fakeExtractor) Name() string { return "fake" }

type fakeCache struct {
	entries map[string]domain.TextSignals
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.TextSignals)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (domain.TextSignals, bool, error) {
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, signals domain.TextSignals) error {
	c.entries[key] = signals
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }
func (c *fakeCache) Close() error                   { return nil }

func TestExtractEmptyText(t *testing.T) {
	adapter := NewAdapter(&fakeExtractor{}, newFakeCache(), 0, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := adapter.Extract(context.Background(), text)
		if err == nil {
			t.Fatalf("expected error for %q", text)
		}
		var emptyErr *domain.EmptyTextError
		if !errors.As(err, &emptyErr) {
			t.Fatalf("expected EmptyTextError, got %T", err)
		}
		if err.Error() != "Text cannot be empty" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	}
}

func TestExtractCachesSuccess(t *testing.T) {
	ext := &fakeExtractor{
		signals: domain.TextSignals{TemperatureProblem: true, Confidence: 0.9},
	}
	adapter := NewAdapter(ext, newFakeCache(), 0, nil)

	first, err := adapter.Extract(context.Background(), "food arrived cold")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if first.Source != domain.SignalSourceExtractor {
		t.Errorf("expected extractor source, got %s", first.Source)
	}
	if !first.Signals.TemperatureProblem {
		t.Error("signals lost in transit")
	}

	second, err := adapter.Extract(context.Background(), "food arrived cold")
	if err != nil {
		t.Fatalf("second extract failed: %v", err)
	}
	if second.Source != domain.SignalSourceCache {
		t.Errorf("expected cache source, got %s", second.Source)
	}
	if second.Signals != first.Signals {
		t.Errorf("cached signals differ: %+v vs %+v", second.Signals, first.Signals)
	}
	if ext.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", ext.calls)
	}
}

func TestExtractFallbackNotCached(t *testing.T) {
	ext := &fakeExtractor{err: fmt.Errorf("backend down")}
	adapter := NewAdapter(ext, newFakeCache(), 0, nil)

	first, err := adapter.Extract(context.Background(), "spilled everywhere")
	if err != nil {
		t.Fatalf("fallback should not surface an error, got %v", err)
	}
	if first.Source != domain.SignalSourceFallback {
		t.Errorf("expected fallback source, got %s", first.Source)
	}
	if first.Signals != domain.FallbackSignals() {
		t.Errorf("expected zero-valued fallback, got %+v", first.Signals)
	}

	// A failed extraction must not poison the cache: the next call
	// retries the backend instead of serving the fallback as a hit.
	second, _ := adapter.Extract(context.Background(), "spilled everywhere")
	if second.Source != domain.SignalSourceFallback {
		t.Errorf("expected fallback source on retry, got %s", second.Source)
	}
	if ext.calls != 2 {
		t.Errorf("expected 2 backend calls, got %d", ext.calls)
	}
}

func TestExtractNoBackend(t *testing.T) {
	adapter := NewAdapter(nil, newFakeCache(), 0, nil)

	extraction, err := adapter.Extract(context.Background(), "where is my order")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if extraction.Source != domain.SignalSourceFallback {
		t.Errorf("expected fallback source, got %s", extraction.Source)
	}
}

func TestExtractTimeout(t *testing.T) {
	ext := &fakeExtractor{block: true}
	adapter := NewAdapter(ext, newFakeCache(), 20*time.Millisecond, nil)

	start := time.Now()
	extraction, err := adapter.Extract(context.Background(), "never arrived at all")
	if err != nil {
		t.Fatalf("timeout should degrade, not fail: %v", err)
	}
	if extraction.Source != domain.SignalSourceFallback {
		t.Errorf("expected fallback source after timeout, got %s", extraction.Source)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestExtractTrimsBeforeKeying(t *testing.T) {
	ext := &fakeExtractor{signals: domain.TextSignals{VagueComplaint: true, Confidence: 0.5}}
	adapter := NewAdapter(ext, newFakeCache(), 0, nil)

	if _, err := adapter.Extract(context.Background(), "bad food"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	second, err := adapter.Extract(context.Background(), "  bad food \n")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if second.Source != domain.SignalSourceCache {
		t.Errorf("whitespace variant missed the cache, source %s", second.Source)
	}
	if ext.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", ext.calls)
	}
}

func TestCacheKeyStable(t *testing.T) {
	if got := CacheKey("hello"); got != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("unexpected digest: %s", got)
	}
	if CacheKey("a") == CacheKey("b") {
		t.Error("distinct texts share a key")
	}
}

func TestParseSignals(t *testing.T) {
	full := `{"food_quality_issue":true,"missing_item":false,"wrong_item":false,
		"temperature_problem":true,"packaging_problem":false,"delivery_spill":false,
		"vague_complaint":false,"customer_aggression":0.2,"evidence_strength":0.8,"confidence":0.9}`

	s, err := parseSignals(full)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !s.FoodQualityIssue || !s.TemperatureProblem {
		t.Errorf("booleans lost: %+v", s)
	}
	if s.EvidenceStrength != 0.8 || s.Confidence != 0.9 {
		t.Errorf("floats lost: %+v", s)
	}

	t.Run("CodeFences", func(t *testing.T) {
		fenced := "```json\n" + full + "\n```"
		if _, err := parseSignals(fenced); err != nil {
			t.Errorf("fenced JSON rejected: %v", err)
		}
	})

	t.Run("MissingField", func(t *testing.T) {
		_, err := parseSignals(`{"food_quality_issue":true}`)
		if err == nil {
			t.Error("expected error for missing fields")
		}
	})

	t.Run("ClampsFloats", func(t *testing.T) {
		s, err := parseSignals(`{"food_quality_issue":false,"missing_item":false,"wrong_item":false,
			"temperature_problem":false,"packaging_problem":false,"delivery_spill":false,
			"vague_complaint":false,"customer_aggression":1.7,"evidence_strength":-0.3,"confidence":2.0}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if s.CustomerAggression != 1.0 || s.EvidenceStrength != 0.0 || s.Confidence != 1.0 {
			t.Errorf("floats not clamped: %+v", s)
		}
	})

	t.Run("NotJSON", func(t *testing.T) {
		if _, err := parseSignals("the customer seems upset"); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})
}
