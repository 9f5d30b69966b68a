// Package impact models the business value of automating refund decisions.
package impact

import "math"

// minutesPerCase is the assumed manual handling time per complaint.
const minutesPerCase = 15.0

// improvementLevels are the improvement fractions reported as scenarios.
var improvementLevels = []float64{0.05, 0.10, 0.15, 0.20}

// Params are the operating assumptions behind the savings model.
type Params struct {
	OrdersPerDay      float64 `json:"orders_per_day"`
	ComplaintRate     float64 `json:"complaint_rate"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	CurrentRefundRate float64 `json:"current_refund_rate"`
}

// DefaultParams returns the baseline assumptions for a mid-size platform.
func DefaultParams() Params {
	return Params{
		OrdersPerDay:      1000,
		ComplaintRate:     0.05,
		AvgOrderValue:     30,
		CurrentRefundRate: 0.6,
	}
}

// Scenario is one improvement level and its projected savings.
type Scenario struct {
	ImprovementPct float64 `json:"improvement_pct"`
	AnnualSavings  float64 `json:"annual_savings"`
	CasesPrevented int     `json:"cases_prevented"`
	TimeSavedHours int     `json:"time_saved_hours"`
}

// Report is the full savings projection.
type Report struct {
	CurrentAnnualCost   float64    `json:"current_annual_cost"`
	CurrentCasesPerYear int        `json:"current_cases_per_year"`
	CurrentHoursPerYear int        `json:"current_hours_per_year"`
	Scenarios           []Scenario `json:"scenarios"`
}

// Estimate projects annual complaint cost and the savings at each
// improvement level. All arithmetic runs on unrounded floats; rounding
// happens only on the reported values.
func Estimate(p Params) Report {
	complaintsPerDay := p.OrdersPerDay * p.ComplaintRate
	complaintsPerYear := complaintsPerDay * 365

	refundsPerYear := complaintsPerYear * p.CurrentRefundRate
	currentAnnualCost := refundsPerYear * p.AvgOrderValue
	currentHoursPerYear := complaintsPerYear * minutesPerCase / 60

	scenarios := make([]Scenario, 0, len(improvementLevels))
	for _, improvement := range improvementLevels {
		casesPrevented := complaintsPerYear * improvement
		refundsPrevented := casesPrevented * p.CurrentRefundRate
		annualSavings := refundsPrevented * p.AvgOrderValue
		timeSavedHours := casesPrevented * minutesPerCase / 60

		scenarios = append(scenarios, Scenario{
			ImprovementPct: improvement,
			AnnualSavings:  round2(annualSavings),
			CasesPrevented: roundInt(casesPrevented),
			TimeSavedHours: roundInt(timeSavedHours),
		})
	}

	return Report{
		CurrentAnnualCost:   round2(currentAnnualCost),
		CurrentCasesPerYear: roundInt(complaintsPerYear),
		CurrentHoursPerYear: roundInt(currentHoursPerYear),
		Scenarios:           scenarios,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
