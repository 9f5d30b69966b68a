package domain

// TextSignals is the structured output of complaint text extraction.
// The extractor reports what the text says; it never decides outcomes.
type TextSignals struct {
	FoodQualityIssue   bool    `json:"food_quality_issue"`
	MissingItem        bool    `json:"missing_item"`
	WrongItem          bool    `json:"wrong_item"`
	TemperatureProblem bool    `json:"temperature_problem"`
	PackagingProblem   bool    `json:"packaging_problem"`
	DeliverySpill      bool    `json:"delivery_spill"`
	VagueComplaint     bool    `json:"vague_complaint"`

	// Graded signals, clamped to [0,1]
	CustomerAggression float64 `json:"customer_aggression"`
	EvidenceStrength   float64 `json:"evidence_strength"`
	Confidence         float64 `json:"confidence"`
}

// FallbackSignals returns the neutral signal set used when extraction
// is unavailable: all flags false, all graded signals zero.
func FallbackSignals() TextSignals {
	return TextSignals{}
}

// Signal source constants record where an extraction came from.
const (
	SignalSourceExtractor = "extractor"
	SignalSourceCache     = "cache"
	SignalSourceFallback  = "fallback"
	SignalSourceNone      = "none"
)

// Extraction pairs extracted signals with their provenance.
type Extraction struct {
	Signals TextSignals `json:"signals"`
	Source  string      `json:"source"`
}
