package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/adelsaramii/verdict/internal/domain"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		signals := domain.TextSignals{
			TemperatureProblem: true,
			EvidenceStrength:   0.8,
			Confidence:         0.9,
		}

		if err := cache.Set(ctx, "key1", signals); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, ok, err := cache.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !ok {
			t.Fatal("expected a hit")
		}
		if got != signals {
			t.Errorf("expected %+v, got %+v", signals, got)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("expected miss for unknown key")
		}
	})

	t.Run("OverwriteIsIdempotent", func(t *testing.T) {
		signals := domain.TextSignals{VagueComplaint: true, Confidence: 0.4}

		_ = cache.Set(ctx, "key2", signals)
		_ = cache.Set(ctx, "key2", signals)

		got, ok, _ := cache.Get(ctx, "key2")
		if !ok || got != signals {
			t.Errorf("expected %+v, got %+v (hit=%v)", signals, got, ok)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		statsCache := NewMemoryCache()
		_ = statsCache.Set(ctx, "k1", domain.TextSignals{})
		_ = statsCache.Set(ctx, "k2", domain.TextSignals{})

		_, _, _ = statsCache.Get(ctx, "k1")
		_, _, _ = statsCache.Get(ctx, "absent")

		size, hits, misses := statsCache.Stats()
		if size != 2 {
			t.Errorf("expected size 2, got %d", size)
		}
		if hits != 1 {
			t.Errorf("expected 1 hit, got %d", hits)
		}
		if misses != 1 {
			t.Errorf("expected 1 miss, got %d", misses)
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		concCache := NewMemoryCache()
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = concCache.Set(ctx, "shared", domain.TextSignals{DeliverySpill: true, Confidence: 0.7})
				_, _, _ = concCache.Get(ctx, "shared")
			}()
		}
		wg.Wait()

		got, ok, _ := concCache.Get(ctx, "shared")
		if !ok || !got.DeliverySpill {
			t.Errorf("expected converged entry, got %+v (hit=%v)", got, ok)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := cache.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		testCache := NewMemoryCache()
		_ = testCache.Set(ctx, "k", domain.TextSignals{})

		if err := testCache.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}

		_, ok, _ := testCache.Get(ctx, "k")
		if ok {
			t.Error("expected cache to be cleared after close")
		}
	})
}

func TestNewCache(t *testing.T) {
	t.Run("MemoryType", func(t *testing.T) {
		cache, err := New(domain.CacheConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer cache.Close()

		if _, ok := cache.(*MemoryCache); !ok {
			t.Error("expected MemoryCache for memory type")
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
			t.Error("expected error for unsupported type")
		}
	})
}
