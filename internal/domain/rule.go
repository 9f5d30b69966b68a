package domain

// Policy rule codes. Each code is an operator-facing knob over one scoring
// factor; TEXT_SIGNALS governs the whole family of text-derived rules except
// the vague-complaint penalty, which has its own code.
const (
	RuleComplaintSeverity = "COMPLAINT_SEVERITY"
	RuleHighDelay         = "HIGH_DELAY"
	RuleRestaurantError   = "RESTAURANT_ERROR"
	RuleCustomerRisk      = "CUSTOMER_RISK"
	RulePhotoEvidence     = "PHOTO_EVIDENCE"
	RuleOrderValue        = "ORDER_VALUE"
	RuleVagueComplaint    = "VAGUE_COMPLAINT"
	RuleTextSignals       = "TEXT_SIGNALS"
)

// RuleDescriptions maps each policy code to its operator-facing description.
var RuleDescriptions = map[string]string{
	RuleComplaintSeverity: "Severity of complaint type",
	RuleHighDelay:         "High delivery delay penalty",
	RuleRestaurantError:   "Restaurant reliability score",
	RuleCustomerRisk:      "Customer refund history risk",
	RulePhotoEvidence:     "Photo evidence bonus",
	RuleOrderValue:        "Order monetary value impact",
	RuleVagueComplaint:    "Vague complaint penalty",
	RuleTextSignals:       "LLM text intelligence signals",
}

// PolicyCodes lists the policy rule codes in stable presentation order.
var PolicyCodes = []string{
	RuleComplaintSeverity,
	RuleHighDelay,
	RuleRestaurantError,
	RuleCustomerRisk,
	RulePhotoEvidence,
	RuleOrderValue,
	RuleVagueComplaint,
	RuleTextSignals,
}

// Weight bounds for policy rules, inclusive on both ends.
const (
	WeightMin = 0.0
	WeightMax = 2.0
)

// RuleState is the tunable state of one policy rule.
type RuleState struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

// PolicyRule is the API view of a policy rule.
type PolicyRule struct {
	RuleCode    string  `json:"rule_code"`
	Enabled     bool    `json:"enabled"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// PolicySnapshot is a consistent read of all rule states, keyed by code.
// Evaluations take one snapshot so mid-flight policy changes cannot tear
// a single decision.
type PolicySnapshot map[string]RuleState

// StateFor returns the state for a code, defaulting to enabled weight 1.0
// when the code is absent from the snapshot.
func (s PolicySnapshot) StateFor(code string) RuleState {
	if st, ok := s[code]; ok {
		return st
	}
	return RuleState{Enabled: true, Weight: 1.0}
}

// PresetResult describes what a preset application changed.
type PresetResult struct {
	Message string   `json:"message"`
	Changes []string `json:"changes"`
}
