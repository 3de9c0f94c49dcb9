package usecase

import (
	"errors"
	"testing"

	"github.com/pricelens/backend/internal/domain"
)

func TestPresetPolicy(t *testing.T) {
	tests := []struct {
		name          string
		preset        string
		wantThreshold float64
		wantBlocking  BlockingStrategy
		wantErr       bool
	}{
		{"empty defaults to gated", "", 0.75, BlockingQuantity, false},
		{"gated", PresetGated, 0.75, BlockingQuantity, false},
		{"balanced", PresetBalanced, 0.65, BlockingQuantity, false},
		{"lenient", PresetLenient, 0.5, BlockingNone, false},
		{"unknown", "aggressive", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := PresetPolicy(tt.preset)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidPolicy) {
					t.Errorf("error = %v, want ErrInvalidPolicy", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PresetPolicy(%q) error = %v", tt.preset, err)
			}
			if policy.Threshold != tt.wantThreshold {
				t.Errorf("Threshold = %v, want %v", policy.Threshold, tt.wantThreshold)
			}
			if policy.Blocking != tt.wantBlocking {
				t.Errorf("Blocking = %v, want %v", policy.Blocking, tt.wantBlocking)
			}
			if err := policy.Validate(); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestMatchPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *MatchPolicy)
	}{
		{"zero threshold", func(p *MatchPolicy) { p.Threshold = 0 }},
		{"threshold above one", func(p *MatchPolicy) { p.Threshold = 1.5 }},
		{"negative weight", func(p *MatchPolicy) { p.TextWeight = -0.1 }},
		{"zero weights", func(p *MatchPolicy) { p.TextWeight, p.OverlapWeight = 0, 0 }},
		{"negative bonus", func(p *MatchPolicy) { p.BrandBonus = -1 }},
		{"no common words required", func(p *MatchPolicy) { p.MinCommonWords = 0 }},
		{"margin reaches threshold", func(p *MatchPolicy) { p.BorderlineMargin = p.Threshold }},
		{"unknown blocking", func(p *MatchPolicy) { p.Blocking = "brand" }},
		{"unknown canonical name policy", func(p *MatchPolicy) { p.CanonicalName = "shortest" }},
		{"quantity blocking without missing quantity gate", func(p *MatchPolicy) { p.MissingQuantityGate = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultMatchPolicy()
			tt.mutate(&policy)
			if err := policy.Validate(); !errors.Is(err, domain.ErrInvalidPolicy) {
				t.Errorf("Validate() = %v, want ErrInvalidPolicy", err)
			}
		})
	}
}
