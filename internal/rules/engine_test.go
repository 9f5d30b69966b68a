package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/adelsaramii/verdict/internal/domain"
)

func baseCase() *domain.Case {
	return &domain.Case{
		ID:                  "CASE0001",
		OrderValue:          45.0,
		DeliveryDelayMin:    10,
		RestaurantErrorRate: 0.02,
		CustomerRefundRate:  0.05,
		ComplaintType:       domain.ComplaintLateDelivery,
		PhotoProvided:       false,
	}
}

func contributionFor(t *testing.T, contributions []Contribution, factor string) *Contribution {
	t.Helper()
	for i := range contributions {
		if contributions[i].Factor == factor {
			return &contributions[i]
		}
	}
	return nil
}

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine(5)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.RulesCount() != len(Catalog()) {
		t.Errorf("expected %d compiled rules, got %d", len(Catalog()), engine.RulesCount())
	}
}

func TestSeverityContributions(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	tests := []struct {
		complaintType string
		want          float64
	}{
		{domain.ComplaintNeverArrived, 35},
		{domain.ComplaintDamagedFood, 25},
		{domain.ComplaintWrongOrder, 20},
		{domain.ComplaintMissingItems, 18},
		{domain.ComplaintQualityIssue, 15},
		{domain.ComplaintLateDelivery, 10},
	}

	for _, tt := range tests {
		c := baseCase()
		c.ComplaintType = tt.complaintType

		contributions, err := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
		if err != nil {
			t.Fatalf("%s: evaluation failed: %v", tt.complaintType, err)
		}

		got := contributionFor(t, contributions, "Complaint Severity")
		if got == nil {
			t.Fatalf("%s: missing severity contribution", tt.complaintType)
		}
		if got.Raw != tt.want {
			t.Errorf("%s: expected raw %.0f, got %.2f", tt.complaintType, tt.want, got.Raw)
		}
	}
}

func TestDelayContributions(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	tests := []struct {
		delay int
		want  float64
	}{
		{0, 0},
		{14, 0},
		{15, 5},
		{29, 5},
		{30, 12},
		{59, 12},
		{60, 20},
		{120, 20},
	}

	for _, tt := range tests {
		c := baseCase()
		c.DeliveryDelayMin = tt.delay

		contributions, err := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
		if err != nil {
			t.Fatalf("delay %d: evaluation failed: %v", tt.delay, err)
		}

		got := contributionFor(t, contributions, "Delivery Delay")
		if got.Raw != tt.want {
			t.Errorf("delay %d: expected raw %.0f, got %.2f", tt.delay, tt.want, got.Raw)
		}
	}
}

func TestRestaurantContributions(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	tests := []struct {
		rate float64
		want float64
	}{
		{0.0, 0},
		{0.04, 0},
		{0.05, 3},
		{0.14, 3},
		{0.15, 8},
		{0.29, 8},
		{0.30, 15},
		{0.50, 15},
	}

	for _, tt := range tests {
		c := baseCase()
		c.RestaurantErrorRate = tt.rate

		contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
		got := contributionFor(t, contributions, "Restaurant Reliability")
		if got.Raw != tt.want {
			t.Errorf("rate %.2f: expected raw %.0f, got %.2f", tt.rate, tt.want, got.Raw)
		}
	}
}

func TestCustomerContributions(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	tests := []struct {
		rate float64
		want float64
	}{
		{0.0, 5},
		{0.09, 5},
		{0.10, -3},
		{0.19, -3},
		{0.20, -8},
		{0.39, -8},
		{0.40, -15},
		{0.60, -15},
	}

	for _, tt := range tests {
		c := baseCase()
		c.CustomerRefundRate = tt.rate

		contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
		got := contributionFor(t, contributions, "Customer History")
		if got.Raw != tt.want {
			t.Errorf("rate %.2f: expected raw %.0f, got %.2f", tt.rate, tt.want, got.Raw)
		}
	}
}

func TestPhotoContribution(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	c := baseCase()
	c.PhotoProvided = true
	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
	got := contributionFor(t, contributions, "Evidence Quality")
	if got.Raw != 10 {
		t.Errorf("with photo: expected raw 10, got %.2f", got.Raw)
	}
	if !strings.Contains(got.Explanation, "substantiated") {
		t.Errorf("unexpected explanation: %s", got.Explanation)
	}

	c.PhotoProvided = false
	contributions, _ = engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
	got = contributionFor(t, contributions, "Evidence Quality")
	if got.Raw != -5 {
		t.Errorf("without photo: expected raw -5, got %.2f", got.Raw)
	}
	if !strings.Contains(got.Explanation, "unverified") {
		t.Errorf("unexpected explanation: %s", got.Explanation)
	}
}

func TestOrderValueContributions(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	tests := []struct {
		value float64
		want  float64
	}{
		{10.0, 0},
		{19.99, 0},
		{20.0, 2},
		{49.99, 2},
		{50.0, 5},
		{99.99, 5},
		{100.0, 10},
		{110.0, 10},
	}

	for _, tt := range tests {
		c := baseCase()
		c.OrderValue = tt.value

		contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})
		got := contributionFor(t, contributions, "Order Value")
		if got.Raw != tt.want {
			t.Errorf("value %.2f: expected raw %.0f, got %.2f", tt.value, tt.want, got.Raw)
		}
	}
}

func TestTextRulesRequireConfidence(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	signals := domain.TextSignals{
		TemperatureProblem: true,
		MissingItem:        true,
		DeliverySpill:      true,
		Confidence:         0.0, // extractor reported nothing usable
	}

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		Signals:    signals,
		HasSignals: true,
	})

	for _, c := range contributions {
		if strings.HasPrefix(c.Factor, "TEXT_SIGNAL_") && c.Emit {
			t.Errorf("text rule %s fired with zero confidence", c.Factor)
		}
	}
}

func TestTextRulesFire(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	tests := []struct {
		name    string
		signals domain.TextSignals
		factor  string
		want    float64
	}{
		{"temperature", domain.TextSignals{TemperatureProblem: true, Confidence: 0.9}, "TEXT_SIGNAL_Temperature", 8},
		{"missing item", domain.TextSignals{MissingItem: true, Confidence: 0.9}, "TEXT_SIGNAL_ItemIssue", 12},
		{"wrong item", domain.TextSignals{WrongItem: true, Confidence: 0.9}, "TEXT_SIGNAL_ItemIssue", 12},
		{"spill", domain.TextSignals{DeliverySpill: true, Confidence: 0.9}, "TEXT_SIGNAL_DeliverySpill", 10},
		{"food quality", domain.TextSignals{FoodQualityIssue: true, Confidence: 0.9}, "TEXT_SIGNAL_FoodQuality", 7},
		{"packaging", domain.TextSignals{PackagingProblem: true, Confidence: 0.9}, "TEXT_SIGNAL_Packaging", 6},
		{"vague", domain.TextSignals{VagueComplaint: true, Confidence: 0.9}, "TEXT_SIGNAL_VagueComplaint", -8},
		{"aggression", domain.TextSignals{CustomerAggression: 0.8, Confidence: 0.9}, "TEXT_SIGNAL_Aggression", -5},
		{"evidence", domain.TextSignals{EvidenceStrength: 0.7, Confidence: 0.9}, "TEXT_SIGNAL_EvidenceStrength", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contributions, err := engine.EvaluateAll(context.Background(), &EvaluateInput{
				Case:       baseCase(),
				Signals:    tt.signals,
				HasSignals: true,
			})
			if err != nil {
				t.Fatalf("evaluation failed: %v", err)
			}

			got := contributionFor(t, contributions, tt.factor)
			if got == nil {
				t.Fatalf("missing contribution for %s", tt.factor)
			}
			if !got.Emit {
				t.Fatalf("%s did not emit", tt.factor)
			}
			if got.Raw != tt.want {
				t.Errorf("expected raw %.0f, got %.2f", tt.want, got.Raw)
			}
			if got.Explanation == "" {
				t.Error("emitted contribution missing explanation")
			}
		})
	}
}

func TestItemIssueExplanationPrefersMissing(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		Signals:    domain.TextSignals{MissingItem: true, WrongItem: true, Confidence: 0.9},
		HasSignals: true,
	})

	got := contributionFor(t, contributions, "TEXT_SIGNAL_ItemIssue")
	if got.Raw != 12 {
		t.Errorf("expected single 12-point contribution, got %.2f", got.Raw)
	}
	if !strings.Contains(got.Explanation, "missing item") {
		t.Errorf("expected missing item explanation, got: %s", got.Explanation)
	}
}

func TestAggressionBoundary(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	// Exactly 0.7 does not fire; strictly above does.
	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		Signals:    domain.TextSignals{CustomerAggression: 0.7, Confidence: 0.9},
		HasSignals: true,
	})
	if got := contributionFor(t, contributions, "TEXT_SIGNAL_Aggression"); got.Emit {
		t.Error("aggression 0.7 should not fire")
	}

	contributions, _ = engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		Signals:    domain.TextSignals{CustomerAggression: 0.71, Confidence: 0.9},
		HasSignals: true,
	})
	if got := contributionFor(t, contributions, "TEXT_SIGNAL_Aggression"); !got.Emit {
		t.Error("aggression 0.71 should fire")
	}
}

func TestEvidenceStrengthBoundary(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		Signals:    domain.TextSignals{EvidenceStrength: 0.6, Confidence: 0.9},
		HasSignals: true,
	})
	if got := contributionFor(t, contributions, "TEXT_SIGNAL_EvidenceStrength"); got.Emit {
		t.Error("evidence strength 0.6 should not fire")
	}

	contributions, _ = engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		Signals:    domain.TextSignals{EvidenceStrength: 0.61, Confidence: 0.9},
		HasSignals: true,
	})
	if got := contributionFor(t, contributions, "TEXT_SIGNAL_EvidenceStrength"); !got.Emit {
		t.Error("evidence strength 0.61 should fire")
	}
}

func TestDisabledRuleOmitted(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	policy := domain.PolicySnapshot{
		domain.RuleHighDelay: domain.RuleState{Enabled: false, Weight: 1.0},
	}

	c := baseCase()
	c.DeliveryDelayMin = 90 // would contribute 20

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:   c,
		Policy: policy,
	})

	if got := contributionFor(t, contributions, "Delivery Delay"); got != nil {
		t.Errorf("disabled rule produced a contribution: %+v", got)
	}
}

func TestWeightScalesImpact(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	policy := domain.PolicySnapshot{
		domain.RuleComplaintSeverity: domain.RuleState{Enabled: true, Weight: 1.5},
	}

	c := baseCase()
	c.ComplaintType = domain.ComplaintWrongOrder // raw 20

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:   c,
		Policy: policy,
	})

	got := contributionFor(t, contributions, "Complaint Severity")
	if got.Raw != 20 {
		t.Errorf("expected raw 20, got %.2f", got.Raw)
	}
	if got.Impact != 30 {
		t.Errorf("expected impact 30 at weight 1.5, got %.2f", got.Impact)
	}
}

func TestWeightZeroKeepsFactReason(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	policy := domain.PolicySnapshot{
		domain.RuleOrderValue: domain.RuleState{Enabled: true, Weight: 0.0},
	}

	c := baseCase()
	c.OrderValue = 120

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:   c,
		Policy: policy,
	})

	got := contributionFor(t, contributions, "Order Value")
	if got == nil || !got.Emit {
		t.Fatal("fact rule at weight zero should still emit")
	}
	if got.Impact != 0 {
		t.Errorf("expected impact 0 at weight 0, got %.2f", got.Impact)
	}
}

func TestFactRulesAlwaysEmit(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	// A case where every fact rule lands in its zero-or-negative branch.
	c := &domain.Case{
		ID:                  "CASE0002",
		OrderValue:          15.0,
		DeliveryDelayMin:    5,
		RestaurantErrorRate: 0.01,
		CustomerRefundRate:  0.05,
		ComplaintType:       domain.ComplaintLateDelivery,
		PhotoProvided:       false,
	}

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{Case: c})

	factFactors := []string{
		"Complaint Severity", "Delivery Delay", "Restaurant Reliability",
		"Customer History", "Evidence Quality", "Order Value",
	}
	for _, factor := range factFactors {
		got := contributionFor(t, contributions, factor)
		if got == nil || !got.Emit {
			t.Errorf("fact rule %s should always emit", factor)
			continue
		}
		if got.Explanation == "" {
			t.Errorf("fact rule %s emitted without explanation", factor)
		}
	}

	delay := contributionFor(t, contributions, "Delivery Delay")
	if !strings.Contains(delay.Explanation, "Minimal delay (5 min)") {
		t.Errorf("unexpected delay explanation: %s", delay.Explanation)
	}
}

func TestCatalogOrderPreserved(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case: baseCase(),
		Signals: domain.TextSignals{
			TemperatureProblem: true,
			DeliverySpill:      true,
			Confidence:         0.9,
		},
		HasSignals: true,
	})

	catalog := Catalog()
	if len(contributions) != len(catalog) {
		t.Fatalf("expected %d contributions, got %d", len(catalog), len(contributions))
	}
	for i, c := range contributions {
		if c.Factor != catalog[i].Factor {
			t.Errorf("position %d: expected %s, got %s", i, catalog[i].Factor, c.Factor)
		}
	}
}

func TestNoSignalsMeansNoTextContributions(t *testing.T) {
	engine, _ := NewEngine(5)
	defer engine.Close()

	contributions, _ := engine.EvaluateAll(context.Background(), &EvaluateInput{
		Case:       baseCase(),
		HasSignals: false,
	})

	for _, c := range contributions {
		if strings.HasPrefix(c.Factor, "TEXT_SIGNAL_") && c.Emit {
			t.Errorf("text rule %s fired without signals", c.Factor)
		}
	}
}
