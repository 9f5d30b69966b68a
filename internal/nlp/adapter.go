package nlp

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/adelsaramii/verdict/internal/domain"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 4 * time.Second

// Adapter fronts an extractor backend with the signal cache and a
// bounded wait. Extraction never fails an evaluation: any backend
// problem degrades to the zero-valued fallback signals. Only the
// successful extractions are cached, so a transient outage does not
// poison the cache with fallbacks.
type Adapter struct {
	extractor Extractor
	cache     domain.SignalCache
	timeout   time.Duration
	logger    *slog.Logger
}

// NewAdapter wires an extractor behind the cache. A nil extractor is
// allowed and behaves like a permanently unavailable backend.
func NewAdapter(extractor Extractor, cache domain.SignalCache, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		extractor: extractor,
		cache:     cache,
		timeout:   timeout,
		logger:    logger,
	}
}

// CacheKey returns the cache key for a complaint text. Keys are the md5
// hex digest of the trimmed text, matching whatever backend produced
// the signals.
func CacheKey(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Extract returns signals for the complaint text plus their provenance.
// The only error it returns is EmptyTextError for blank input, which is
// the caller's contract to prevent.
func (a *Adapter) Extract(ctx context.Context, text string) (domain.Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Extraction{}, &domain.EmptyTextError{}
	}

	key := CacheKey(text)
	if a.cache != nil {
		signals, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.logger.Warn("signal cache read failed", "error", err)
		} else if ok {
			return domain.Extraction{Signals: signals, Source: domain.SignalSourceCache}, nil
		}
	}

	if a.extractor == nil {
		return domain.Extraction{Signals: domain.FallbackSignals(), Source: domain.SignalSourceFallback}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	signals, err := a.extractor.Extract(callCtx, text)
	if err != nil {
		a.logger.Warn("text extraction failed, using fallback",
			"backend", a.extractor.Name(),
			"error", err)
		return domain.Extraction{Signals: domain.FallbackSignals(), Source: domain.SignalSourceFallback}, nil
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, signals); err != nil {
			a.logger.Warn("signal cache write failed", "error", err)
		}
	}

	return domain.Extraction{Signals: signals, Source: domain.SignalSourceExtractor}, nil
}
