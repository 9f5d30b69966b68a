// Package nlp converts free-text complaints into the structured signals
// the rule engine scores. Extractor backends are classification-only:
// they return the ten signal fields and nothing else, and are never
// allowed to propose a refund outcome.
package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adelsaramii/verdict/internal/domain"
)

// Extractor is a text-signal backend.
type Extractor interface {
	// Extract classifies complaint text into signals. Implementations
	// must honor ctx cancellation; callers bound the wait.
	Extract(ctx context.Context, text string) (domain.TextSignals, error)

	// Name identifies the backend in logs.
	Name() string
}

const systemPrompt = `You are a structured information extractor for food delivery complaints.
Return ONLY valid JSON.
Do not explain anything.
Do not add text outside JSON.
You are not allowed to decide refund outcomes.`

func userPrompt(text string) string {
	return fmt.Sprintf(`Complaint text:
"""
%s
"""

Extract structured signals for operational decision support.

Respond with JSON fields:
food_quality_issue (boolean)
missing_item (boolean)
wrong_item (boolean)
temperature_problem (boolean)
packaging_problem (boolean)
delivery_spill (boolean)
vague_complaint (boolean)
customer_aggression (0-1 float)
evidence_strength (0-1 float)
confidence (0-1 float)`, text)
}

var requiredFields = []string{
	"food_quality_issue", "missing_item", "wrong_item",
	"temperature_problem", "packaging_problem", "delivery_spill",
	"vague_complaint", "customer_aggression", "evidence_strength",
	"confidence",
}

// parseSignals decodes a backend response. Every one of the ten fields
// must be present; the float fields are clamped into [0,1].
func parseSignals(raw string) (domain.TextSignals, error) {
	raw = stripCodeFences(strings.TrimSpace(raw))
	if raw == "" {
		return domain.TextSignals{}, fmt.Errorf("empty response")
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &present); err != nil {
		return domain.TextSignals{}, fmt.Errorf("bad JSON: %w", err)
	}
	for _, field := range requiredFields {
		if _, ok := present[field]; !ok {
			return domain.TextSignals{}, fmt.Errorf("missing field: %s", field)
		}
	}

	var s domain.TextSignals
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return domain.TextSignals{}, fmt.Errorf("bad JSON: %w", err)
	}

	s.CustomerAggression = clamp01(s.CustomerAggression)
	s.EvidenceStrength = clamp01(s.EvidenceStrength)
	s.Confidence = clamp01(s.Confidence)
	return s, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
