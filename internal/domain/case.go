package domain

// Case represents a refund complaint to be scored.
type Case struct {
	// Core identifier
	ID string `json:"case_id"`

	// Order facts
	OrderValue       float64 `json:"order_value"`
	DeliveryDelayMin int     `json:"delivery_delay_min"`

	// Historical rates, fractions in [0,1]
	RestaurantErrorRate float64 `json:"restaurant_error_rate"`
	CustomerRefundRate  float64 `json:"customer_refund_rate"`

	// Complaint details
	ComplaintType string `json:"complaint_type"`
	PhotoProvided bool   `json:"photo_provided"`

	// Catalog flags
	IsDemo bool `json:"is_demo"`

	// Optional free-form complaint text
	ComplaintText string `json:"complaint_text,omitempty"`
}

// Complaint type constants.
const (
	ComplaintNeverArrived = "NEVER_ARRIVED"
	ComplaintDamagedFood  = "DAMAGED_FOOD"
	ComplaintWrongOrder   = "WRONG_ORDER"
	ComplaintMissingItems = "MISSING_ITEMS"
	ComplaintQualityIssue = "QUALITY_ISSUE"
	ComplaintLateDelivery = "LATE_DELIVERY"
)

// ComplaintTypes lists all valid complaint types in severity order.
var ComplaintTypes = []string{
	ComplaintNeverArrived,
	ComplaintDamagedFood,
	ComplaintWrongOrder,
	ComplaintMissingItems,
	ComplaintQualityIssue,
	ComplaintLateDelivery,
}

// ValidComplaintType reports whether t is a known complaint type.
func ValidComplaintType(t string) bool {
	for _, known := range ComplaintTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Validate checks the structural integrity of a case. Numeric ranges are
// trusted from the caller; only identity and enum membership are checked.
func (c *Case) Validate() error {
	if c.ComplaintType == "" {
		return &MalformedCaseError{Field: "complaint_type", Reason: "is required"}
	}
	if !ValidComplaintType(c.ComplaintType) {
		return &MalformedCaseError{Field: "complaint_type", Reason: "unknown value " + c.ComplaintType}
	}
	return nil
}

// CaseWithSuggestion pairs a catalog case with its live evaluation.
type CaseWithSuggestion struct {
	Case       Case        `json:"case"`
	Suggestion *Suggestion `json:"suggestion"`
}

// Suggestion is the scoring outcome presented alongside a case.
type Suggestion struct {
	Action     string   `json:"action"`
	Confidence float64  `json:"confidence"`
	Score      float64  `json:"score"`
	Reasons    []Reason `json:"reasons"`
}
