package policy

import (
	"strings"

	"github.com/adelsaramii/verdict/internal/domain"
)

// presetChange adjusts one rule. When enable is set the rule is switched
// on regardless of its prior state; otherwise only the weight moves.
type presetChange struct {
	code   string
	weight float64
	enable bool
	note   string
}

type preset struct {
	message string
	changes []presetChange
}

var presets = map[string]preset{
	"strict": {
		message: "Strict mode applied",
		changes: []presetChange{
			{code: domain.RuleCustomerRisk, weight: 1.5, enable: true, note: "CUSTOMER_RISK weight increased to 1.5"},
			{code: domain.RuleVagueComplaint, weight: 1.3, enable: true, note: "VAGUE_COMPLAINT weight increased to 1.3"},
			{code: domain.RulePhotoEvidence, weight: 1.2, note: "PHOTO_EVIDENCE weight increased to 1.2"},
		},
	},
	"friendly": {
		message: "Customer-friendly mode applied",
		changes: []presetChange{
			{code: domain.RuleCustomerRisk, weight: 0.5, enable: true, note: "CUSTOMER_RISK weight decreased to 0.5"},
			{code: domain.RulePhotoEvidence, weight: 1.5, enable: true, note: "PHOTO_EVIDENCE weight increased to 1.5"},
			{code: domain.RuleVagueComplaint, weight: 0.5, note: "VAGUE_COMPLAINT weight decreased to 0.5"},
		},
	},
	"delay-tolerant": {
		message: "Delay-tolerant mode applied",
		changes: []presetChange{
			{code: domain.RuleHighDelay, weight: 0.5, enable: true, note: "HIGH_DELAY weight decreased to 0.5"},
			{code: domain.RuleComplaintSeverity, weight: 1.2, note: "COMPLAINT_SEVERITY weight increased to 1.2"},
		},
	},
}

// ApplyPreset applies a named preset. Names are case-insensitive.
func (s *Store) ApplyPreset(name string) (*domain.PresetResult, error) {
	name = strings.ToLower(name)
	p, ok := presets[name]
	if !ok {
		return nil, &domain.UnknownPresetError{Name: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &domain.PresetResult{
		Message: p.message,
		Changes: make([]string, 0, len(p.changes)),
	}
	for _, change := range p.changes {
		state := s.rules[change.code]
		state.Weight = change.weight
		if change.enable {
			state.Enabled = true
		}
		s.rules[change.code] = state
		result.Changes = append(result.Changes, change.note)
	}
	return result, nil
}

// PresetNames returns the available preset names.
func PresetNames() []string {
	return []string{"strict", "friendly", "delay-tolerant"}
}
