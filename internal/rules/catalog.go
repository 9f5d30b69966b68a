package rules

import (
	"fmt"

	"github.com/adelsaramii/verdict/internal/domain"
)

// Kind distinguishes fact rules from text rules. Fact rules always emit a
// reason when enabled, even at zero contribution, so the scorecard reads as
// a complete assessment. Text rules emit only when they fire.
type Kind int

const (
	KindFact Kind = iota
	KindText
)

// Rule is one catalog entry: a CEL expression yielding the raw contribution
// in points, plus the metadata needed to turn that contribution into a
// decision reason.
type Rule struct {
	// Code is the policy code governing this rule. Several text rules share
	// the TEXT_SIGNALS umbrella code.
	Code string

	// Factor is the wire name this rule's reasons carry.
	Factor string

	// Expression is the CEL source. It must yield a double.
	Expression string

	Kind Kind

	// Explain renders the reason text for a raw contribution. The raw value
	// identifies the branch taken; case and signal values feed the message.
	Explain func(c *domain.Case, s domain.TextSignals, raw float64) string
}

// textGate guards every text rule: signals must be present and the
// extractor must have reported nonzero confidence.
const textGate = "has_signals && signal_confidence > 0.0"

// Catalog returns the scoring rules in evaluation order. The order is part
// of the contract: reasons appear in it.
func Catalog() []Rule {
	return []Rule{
		{
			Code:   domain.RuleComplaintSeverity,
			Factor: "Complaint Severity",
			Expression: "complaint == 'NEVER_ARRIVED' ? 35.0 : " +
				"(complaint == 'DAMAGED_FOOD' ? 25.0 : " +
				"(complaint == 'WRONG_ORDER' ? 20.0 : " +
				"(complaint == 'MISSING_ITEMS' ? 18.0 : " +
				"(complaint == 'QUALITY_ISSUE' ? 15.0 : 10.0))))",
			Kind:    KindFact,
			Explain: explainSeverity,
		},
		{
			Code:   domain.RuleHighDelay,
			Factor: "Delivery Delay",
			Expression: "delay_min >= 60 ? 20.0 : " +
				"(delay_min >= 30 ? 12.0 : " +
				"(delay_min >= 15 ? 5.0 : 0.0))",
			Kind:    KindFact,
			Explain: explainDelay,
		},
		{
			Code:   domain.RuleRestaurantError,
			Factor: "Restaurant Reliability",
			Expression: "restaurant_error_rate >= 0.3 ? 15.0 : " +
				"(restaurant_error_rate >= 0.15 ? 8.0 : " +
				"(restaurant_error_rate >= 0.05 ? 3.0 : 0.0))",
			Kind:    KindFact,
			Explain: explainRestaurant,
		},
		{
			Code:   domain.RuleCustomerRisk,
			Factor: "Customer History",
			Expression: "customer_refund_rate >= 0.4 ? -15.0 : " +
				"(customer_refund_rate >= 0.2 ? -8.0 : " +
				"(customer_refund_rate >= 0.1 ? -3.0 : 5.0))",
			Kind:    KindFact,
			Explain: explainCustomer,
		},
		{
			Code:       domain.RulePhotoEvidence,
			Factor:     "Evidence Quality",
			Expression: "photo ? 10.0 : -5.0",
			Kind:       KindFact,
			Explain:    explainPhoto,
		},
		{
			Code:   domain.RuleOrderValue,
			Factor: "Order Value",
			Expression: "order_value >= 100.0 ? 10.0 : " +
				"(order_value >= 50.0 ? 5.0 : " +
				"(order_value >= 20.0 ? 2.0 : 0.0))",
			Kind:    KindFact,
			Explain: explainValue,
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_Temperature",
			Expression: textGate + " && temperature_problem ? 8.0 : 0.0",
			Kind:       KindText,
			Explain:    staticExplain("Complaint mentions temperature issues - food quality concern"),
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_ItemIssue",
			Expression: textGate + " && (missing_item || wrong_item) ? 12.0 : 0.0",
			Kind:       KindText,
			Explain:    explainItemIssue,
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_DeliverySpill",
			Expression: textGate + " && delivery_spill ? 10.0 : 0.0",
			Kind:       KindText,
			Explain:    staticExplain("Delivery spill mentioned - courier fault, not restaurant"),
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_FoodQuality",
			Expression: textGate + " && food_quality_issue ? 7.0 : 0.0",
			Kind:       KindText,
			Explain:    staticExplain("Food quality issue described in complaint"),
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_Packaging",
			Expression: textGate + " && packaging_problem ? 6.0 : 0.0",
			Kind:       KindText,
			Explain:    staticExplain("Packaging problem mentioned - preparation issue"),
		},
		{
			Code:       domain.RuleVagueComplaint,
			Factor:     "TEXT_SIGNAL_VagueComplaint",
			Expression: textGate + " && vague_complaint ? -8.0 : 0.0",
			Kind:       KindText,
			Explain:    staticExplain("Complaint is vague or lacks specifics - reduces credibility"),
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_Aggression",
			Expression: textGate + " && customer_aggression > 0.7 ? -5.0 : 0.0",
			Kind:       KindText,
			Explain:    explainAggression,
		},
		{
			Code:       domain.RuleTextSignals,
			Factor:     "TEXT_SIGNAL_EvidenceStrength",
			Expression: textGate + " && evidence_strength > 0.6 ? 8.0 : 0.0",
			Kind:       KindText,
			Explain:    explainEvidenceStrength,
		},
	}
}

func staticExplain(text string) func(*domain.Case, domain.TextSignals, float64) string {
	return func(*domain.Case, domain.TextSignals, float64) string {
		return text
	}
}

func explainSeverity(c *domain.Case, _ domain.TextSignals, raw float64) string {
	switch raw {
	case 35:
		return "Order never arrived - critical issue"
	case 25:
		return "Food damaged - health and safety concern"
	case 20:
		return "Wrong order delivered - clear mistake"
	case 18:
		return "Items missing from order"
	case 15:
		return "Quality concern reported"
	default:
		return "Delivery was late"
	}
}

func explainDelay(c *domain.Case, _ domain.TextSignals, raw float64) string {
	switch raw {
	case 20:
		return fmt.Sprintf("Severe delay (%d min) - highly unacceptable", c.DeliveryDelayMin)
	case 12:
		return fmt.Sprintf("Significant delay (%d min) - customer inconvenienced", c.DeliveryDelayMin)
	case 5:
		return fmt.Sprintf("Moderate delay (%d min) - minor inconvenience", c.DeliveryDelayMin)
	default:
		return fmt.Sprintf("Minimal delay (%d min) - within acceptable range", c.DeliveryDelayMin)
	}
}

func explainRestaurant(c *domain.Case, _ domain.TextSignals, raw float64) string {
	pct := c.RestaurantErrorRate * 100
	switch raw {
	case 15:
		return fmt.Sprintf("High restaurant error rate (%.0f%%) - pattern of issues", pct)
	case 8:
		return fmt.Sprintf("Moderate restaurant error rate (%.0f%%)", pct)
	case 3:
		return fmt.Sprintf("Low restaurant error rate (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Excellent restaurant record (%.0f%%)", pct)
	}
}

func explainCustomer(c *domain.Case, _ domain.TextSignals, raw float64) string {
	pct := c.CustomerRefundRate * 100
	switch raw {
	case -15:
		return fmt.Sprintf("High customer refund rate (%.0f%%) - possible abuse pattern", pct)
	case -8:
		return fmt.Sprintf("Elevated customer refund rate (%.0f%%) - requires scrutiny", pct)
	case -3:
		return fmt.Sprintf("Moderate customer refund rate (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Excellent customer history (%.0f%%) - trustworthy", pct)
	}
}

func explainPhoto(c *domain.Case, _ domain.TextSignals, raw float64) string {
	if raw > 0 {
		return "Photo evidence provided - claim substantiated"
	}
	return "No photo evidence - claim unverified"
}

func explainValue(c *domain.Case, _ domain.TextSignals, raw float64) string {
	switch raw {
	case 10:
		return fmt.Sprintf("High-value order ($%.2f) - important customer", c.OrderValue)
	case 5:
		return fmt.Sprintf("Medium-value order ($%.2f)", c.OrderValue)
	case 2:
		return fmt.Sprintf("Standard order value ($%.2f)", c.OrderValue)
	default:
		return fmt.Sprintf("Low-value order ($%.2f)", c.OrderValue)
	}
}

func explainItemIssue(_ *domain.Case, s domain.TextSignals, _ float64) string {
	kind := "wrong"
	if s.MissingItem {
		kind = "missing"
	}
	return fmt.Sprintf("Complaint clearly describes %s item - strong validity", kind)
}

func explainAggression(_ *domain.Case, s domain.TextSignals, _ float64) string {
	return fmt.Sprintf("High aggression level (%.1f%%) - may indicate unreasonable expectations", s.CustomerAggression*100)
}

func explainEvidenceStrength(_ *domain.Case, s domain.TextSignals, _ float64) string {
	return fmt.Sprintf("Strong evidence in complaint text (%.1f%%) - detailed description", s.EvidenceStrength*100)
}
