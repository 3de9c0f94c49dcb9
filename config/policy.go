package config

import "github.com/pricelens/backend/internal/usecase"

// Policy resolves the preset and applies explicit overrides
func (m MatchingConfig) Policy() (usecase.MatchPolicy, error) {
	policy, err := usecase.PresetPolicy(m.Preset)
	if err != nil {
		return usecase.MatchPolicy{}, err
	}

	overrideFloat(&policy.Threshold, m.Threshold)
	overrideFloat(&policy.TextWeight, m.TextWeight)
	overrideFloat(&policy.OverlapWeight, m.OverlapWeight)
	overrideFloat(&policy.BrandBonus, m.BrandBonus)
	overrideFloat(&policy.QuantityBonus, m.QuantityBonus)
	overrideFloat(&policy.BorderlineMargin, m.BorderlineMargin)
	overrideInt(&policy.MinCommonWords, m.MinCommonWords)
	overrideInt(&policy.MinCommonWordsWithBrand, m.MinCommonWordsWithBrand)

	if m.QuantityGate != nil {
		policy.QuantityGate = *m.QuantityGate
	}
	if m.MissingQuantityGate != nil {
		policy.MissingQuantityGate = *m.MissingQuantityGate
	}
	if m.BrandGate != nil {
		policy.BrandGate = *m.BrandGate
	}

	if m.Blocking != "" {
		policy.Blocking = usecase.BlockingStrategy(m.Blocking)
	} else if !policy.MissingQuantityGate && policy.Blocking == usecase.BlockingQuantity {
		// Unsized entries must stay comparable with sized ones.
		policy.Blocking = usecase.BlockingNone
	}
	if m.CanonicalName != "" {
		policy.CanonicalName = usecase.CanonicalNamePolicy(m.CanonicalName)
	}

	if err := policy.Validate(); err != nil {
		return usecase.MatchPolicy{}, err
	}
	return policy, nil
}

func overrideFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func overrideInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
