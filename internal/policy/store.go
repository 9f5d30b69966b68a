// Package policy holds the tunable rule states that drive scoring.
// Operators toggle rules, scale weights, and apply presets; the engine
// reads a snapshot per evaluation so concurrent changes cannot tear a
// single decision.
package policy

import (
	"sync"

	"github.com/adelsaramii/verdict/internal/domain"
)

// Store holds per-rule policy state keyed by rule code.
type Store struct {
	mu    sync.RWMutex
	rules map[string]domain.RuleState
}

// NewStore creates a policy store with every rule enabled at weight 1.0.
func NewStore() *Store {
	rules := make(map[string]domain.RuleState, len(domain.PolicyCodes))
	for _, code := range domain.PolicyCodes {
		rules[code] = domain.RuleState{Enabled: true, Weight: 1.0}
	}
	return &Store{rules: rules}
}

// Toggle flips the enabled flag for a rule and returns the new state.
func (s *Store) Toggle(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rules[code]
	if !ok {
		return false, &domain.UnknownRuleError{Code: code}
	}
	state.Enabled = !state.Enabled
	s.rules[code] = state
	return state.Enabled, nil
}

// SetWeight updates a rule's weight. The enabled flag is left as is.
// Weights outside [0,2] are rejected.
func (s *Store) SetWeight(code string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rules[code]
	if !ok {
		return &domain.UnknownRuleError{Code: code}
	}
	if weight < domain.WeightMin || weight > domain.WeightMax {
		return &domain.InvalidWeightError{Weight: weight}
	}
	state.Weight = weight
	s.rules[code] = state
	return nil
}

// Snapshot returns a consistent copy of all rule states.
func (s *Store) Snapshot() domain.PolicySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(domain.PolicySnapshot, len(s.rules))
	for code, state := range s.rules {
		snap[code] = state
	}
	return snap
}

// List returns all rules with their descriptions in catalog order.
func (s *Store) List() []domain.PolicyRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PolicyRule, 0, len(domain.PolicyCodes))
	for _, code := range domain.PolicyCodes {
		state := s.rules[code]
		out = append(out, domain.PolicyRule{
			RuleCode:    code,
			Enabled:     state.Enabled,
			Weight:      state.Weight,
			Description: domain.RuleDescriptions[code],
		})
	}
	return out
}

// StateFor returns the current state for one rule code.
func (s *Store) StateFor(code string) (domain.RuleState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.rules[code]
	return state, ok
}
