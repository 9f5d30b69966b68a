package domain

import (
	"time"
)

// Action constants for the final decision.
const (
	ActionRefund       = "REFUND"
	ActionPartial      = "PARTIAL"
	ActionReject       = "REJECT"
	ActionManualReview = "MANUAL_REVIEW"
)

// Reason is one rule's contribution to a decision.
type Reason struct {
	Factor      string  `json:"factor"`
	Explanation string  `json:"explanation"`
	Impact      float64 `json:"impact"`
}

// Decision is the scoring outcome for a single case.
// Score is the exact sum of reason impacts; nothing is rounded here.
type Decision struct {
	Action     string   `json:"action"`
	Confidence float64  `json:"confidence"`
	Score      float64  `json:"score"`
	Reasons    []Reason `json:"reasons"`
}

// TotalImpact sums the reason impacts. It always equals Score.
func (d *Decision) TotalImpact() float64 {
	var total float64
	for _, r := range d.Reasons {
		total += r.Impact
	}
	return total
}

// Evaluation is a persisted decision with identity and provenance.
type Evaluation struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"case_id"`
	Action       string    `json:"action"`
	Confidence   float64   `json:"confidence"`
	Score        float64   `json:"score"`
	Reasons      []Reason  `json:"reasons"`
	SignalSource string    `json:"signal_source"`
	CreatedAt    time.Time `json:"created_at"`
}

// Decision extracts the embedded decision from an evaluation.
func (e *Evaluation) Decision() Decision {
	return Decision{
		Action:     e.Action,
		Confidence: e.Confidence,
		Score:      e.Score,
		Reasons:    e.Reasons,
	}
}

// Review band constants: which side of the manual-review range a case fell in.
const (
	ReviewBandBorderlineHigh = "borderline_high" // score in [65,70)
	ReviewBandBorderlineLow  = "borderline_low"  // score in [35,40)
)

// Review status constants.
const (
	ReviewStatusPending = "pending"
	ReviewStatusDone    = "done"
)

// Review is a manual-review queue entry for a borderline decision.
type Review struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	DecisionID string    `json:"decision_id"`
	Score      float64   `json:"score"`
	Band       string    `json:"band"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
