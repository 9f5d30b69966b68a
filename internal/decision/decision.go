// Package decision aggregates weighted rule contributions into a final
// refund decision: an action, a calibrated confidence, and the reasons
// that produced the score.
package decision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adelsaramii/verdict/internal/domain"
	"github.com/adelsaramii/verdict/internal/rules"
)

// Confidence caps per action. Manual review is capped low because the
// band itself marks the case as ambiguous.
const (
	refundConfidenceCap  = 0.95
	partialConfidenceCap = 0.85
	rejectConfidenceCap  = 0.90
	reviewConfidenceCap  = 0.60
)

// Processor classifies aggregate scores into refund actions.
type Processor struct {
	// Score bands, highest first. Bands are half-open: a score equal to
	// a threshold lands in the band that threshold opens.
	RefundThreshold     float64
	ReviewHighThreshold float64
	PartialThreshold    float64
	ReviewLowThreshold  float64
}

// NewProcessor creates a processor with the standard score bands.
func NewProcessor() *Processor {
	return &Processor{
		RefundThreshold:     70,
		ReviewHighThreshold: 65,
		PartialThreshold:    40,
		ReviewLowThreshold:  35,
	}
}

// DecisionInput contains all data needed for a decision.
type DecisionInput struct {
	CaseID        string
	Contributions []rules.Contribution
	SignalSource  string
}

// Process sums the emitted contributions and classifies the total.
// The returned evaluation's score always equals the sum of its reason
// impacts; contributions that did not emit carry zero impact and are
// left out of the reasons list entirely.
func (p *Processor) Process(ctx context.Context, input *DecisionInput) *domain.Evaluation {
	var score float64
	reasons := make([]domain.Reason, 0, len(input.Contributions))
	for _, c := range input.Contributions {
		if !c.Emit {
			continue
		}
		score += c.Impact
		reasons = append(reasons, domain.Reason{
			Factor:      c.Factor,
			Explanation: c.Explanation,
			Impact:      c.Impact,
		})
	}

	action, band := p.Classify(score)

	return &domain.Evaluation{
		ID:           uuid.New().String(),
		CaseID:       input.CaseID,
		Action:       action,
		Confidence:   p.confidence(score, action, band),
		Score:        score,
		Reasons:      reasons,
		SignalSource: input.SignalSource,
		CreatedAt:    time.Now().UTC(),
	}
}

// Classify maps a total score to an action. For manual review it also
// returns which borderline band the score fell in; other actions return
// an empty band.
func (p *Processor) Classify(score float64) (string, string) {
	switch {
	case score >= p.RefundThreshold:
		return domain.ActionRefund, ""
	case score >= p.ReviewHighThreshold:
		return domain.ActionManualReview, domain.ReviewBandBorderlineHigh
	case score >= p.PartialThreshold:
		return domain.ActionPartial, ""
	case score >= p.ReviewLowThreshold:
		return domain.ActionManualReview, domain.ReviewBandBorderlineLow
	default:
		return domain.ActionReject, ""
	}
}

// confidence grows with the score's distance from the nearest band edge
// and is capped per action. A score sitting exactly on a boundary gets
// the floor value of 0.5.
func (p *Processor) confidence(score float64, action, band string) float64 {
	var dist, limit float64
	switch action {
	case domain.ActionRefund:
		dist = score - p.RefundThreshold
		limit = refundConfidenceCap
	case domain.ActionPartial:
		dist = min(score-p.PartialThreshold, p.ReviewHighThreshold-score)
		limit = partialConfidenceCap
	case domain.ActionReject:
		dist = p.ReviewLowThreshold - score
		limit = rejectConfidenceCap
	default:
		if band == domain.ReviewBandBorderlineHigh {
			dist = min(score-p.ReviewHighThreshold, p.RefundThreshold-score)
		} else {
			dist = min(score-p.ReviewLowThreshold, p.PartialThreshold-score)
		}
		limit = reviewConfidenceCap
	}

	c := 0.5 + (limit-0.5)*dist/(dist+10)
	return clamp(c, 0.5, limit)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
