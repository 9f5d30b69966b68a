// Package rules provides the CEL-Go based scoring rule engine.
package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/adelsaramii/verdict/internal/domain"
)

// Engine evaluates the rule catalog against complaint cases. The catalog is
// compiled once at construction; per-request variation comes entirely from
// the case activation and the policy snapshot.
type Engine struct {
	env        *cel.Env
	compiled   []*compiledRule // catalog order
	maxWorkers int
}

// compiledRule pairs a catalog rule with its compiled CEL program.
type compiledRule struct {
	rule    Rule
	program cel.Program
}

// NewEngine compiles the catalog and returns a ready engine.
func NewEngine(maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	env, err := cel.NewEnv(
		cel.Variable("order_value", cel.DoubleType),
		cel.Variable("delay_min", cel.IntType),
		cel.Variable("restaurant_error_rate", cel.DoubleType),
		cel.Variable("customer_refund_rate", cel.DoubleType),
		cel.Variable("complaint", cel.StringType),
		cel.Variable("photo", cel.BoolType),
		cel.Variable("has_signals", cel.BoolType),
		cel.Variable("food_quality_issue", cel.BoolType),
		cel.Variable("missing_item", cel.BoolType),
		cel.Variable("wrong_item", cel.BoolType),
		cel.Variable("temperature_problem", cel.BoolType),
		cel.Variable("packaging_problem", cel.BoolType),
		cel.Variable("delivery_spill", cel.BoolType),
		cel.Variable("vague_complaint", cel.BoolType),
		cel.Variable("customer_aggression", cel.DoubleType),
		cel.Variable("evidence_strength", cel.DoubleType),
		cel.Variable("signal_confidence", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	engine := &Engine{
		env:        env,
		maxWorkers: maxWorkers,
	}

	catalog := Catalog()
	engine.compiled = make([]*compiledRule, 0, len(catalog))
	for _, rule := range catalog {
		compiled, err := engine.compileRule(rule)
		if err != nil {
			return nil, err
		}
		engine.compiled = append(engine.compiled, compiled)
	}

	return engine, nil
}

func (e *Engine) compileRule(rule Rule) (*compiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.Factor, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("rule %s: expression must return a numeric score, got %s", rule.Factor, outputType)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.Factor, err)
	}

	return &compiledRule{rule: rule, program: program}, nil
}

// EvaluateInput holds the case data for rule evaluation.
type EvaluateInput struct {
	Case       *domain.Case
	Signals    domain.TextSignals
	HasSignals bool
	Policy     domain.PolicySnapshot
}

// Contribution is the outcome of one rule evaluation.
type Contribution struct {
	Code        string  `json:"code"`
	Factor      string  `json:"factor"`
	Raw         float64 `json:"raw"`
	Impact      float64 `json:"impact"`
	Explanation string  `json:"explanation"`

	// Emit marks contributions that become decision reasons. Fact rules
	// always emit; text rules only when they fired.
	Emit bool `json:"emit"`
}

// EvaluateAll runs every enabled rule against the case and returns the
// contributions in catalog order. Disabled rules are not evaluated and
// produce no contribution.
func (e *Engine) EvaluateAll(ctx context.Context, input *EvaluateInput) ([]Contribution, error) {
	if input == nil || input.Case == nil {
		return nil, fmt.Errorf("evaluate input requires a case")
	}

	policy := input.Policy
	if policy == nil {
		policy = domain.PolicySnapshot{}
	}

	enabled := make([]*compiledRule, 0, len(e.compiled))
	for _, cr := range e.compiled {
		if policy.StateFor(cr.rule.Code).Enabled {
			enabled = append(enabled, cr)
		}
	}
	if len(enabled) == 0 {
		return nil, nil
	}

	activation := buildActivation(input)

	// Parallel evaluation with bounded concurrency; results land in
	// catalog-order slots so output order stays deterministic.
	raws := make([]float64, len(enabled))
	errs := make([]error, len(enabled))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for i, cr := range enabled {
		wg.Add(1)
		go func(idx int, r *compiledRule) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out, _, err := r.program.Eval(activation)
			if err != nil {
				errs[idx] = fmt.Errorf("rule %s: %w", r.rule.Factor, err)
				return
			}
			raws[idx] = toScore(out)
		}(i, cr)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	contributions := make([]Contribution, 0, len(enabled))
	for i, cr := range enabled {
		raw := raws[i]
		weight := policy.StateFor(cr.rule.Code).Weight

		c := Contribution{
			Code:   cr.rule.Code,
			Factor: cr.rule.Factor,
			Raw:    raw,
			Impact: raw * weight,
		}
		switch cr.rule.Kind {
		case KindFact:
			c.Emit = true
		case KindText:
			c.Emit = raw != 0
		}
		if c.Emit {
			c.Explanation = cr.rule.Explain(input.Case, input.Signals, raw)
		}
		contributions = append(contributions, c)
	}

	return contributions, nil
}

// buildActivation maps case fields and text signals to CEL variables.
func buildActivation(input *EvaluateInput) map[string]any {
	c := input.Case
	s := input.Signals
	return map[string]any{
		"order_value":           c.OrderValue,
		"delay_min":             int64(c.DeliveryDelayMin),
		"restaurant_error_rate": c.RestaurantErrorRate,
		"customer_refund_rate":  c.CustomerRefundRate,
		"complaint":             c.ComplaintType,
		"photo":                 c.PhotoProvided,
		"has_signals":           input.HasSignals,
		"food_quality_issue":    s.FoodQualityIssue,
		"missing_item":          s.MissingItem,
		"wrong_item":            s.WrongItem,
		"temperature_problem":   s.TemperatureProblem,
		"packaging_problem":     s.PackagingProblem,
		"delivery_spill":        s.DeliverySpill,
		"vague_complaint":       s.VagueComplaint,
		"customer_aggression":   s.CustomerAggression,
		"evidence_strength":     s.EvidenceStrength,
		"signal_confidence":     s.Confidence,
	}
}

// toScore converts a CEL value to a numeric score.
func toScore(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

// RulesCount returns the number of compiled catalog rules.
func (e *Engine) RulesCount() int {
	return len(e.compiled)
}

// Close releases the compiled programs.
func (e *Engine) Close() error {
	e.compiled = nil
	return nil
}
