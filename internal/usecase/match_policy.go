package usecase

import (
	"fmt"

	"github.com/pricelens/backend/internal/domain"
)

// BlockingStrategy selects the coarse key used to partition entries before
// the all-pairs comparison
type BlockingStrategy string

const (
	// BlockingNone compares every entry with every other entry
	BlockingNone BlockingStrategy = "none"
	// BlockingQuantity partitions by glued pack size ("500g", "" when absent).
	// Exact while both quantity gates are on, since pairs across blocks score 0.
	BlockingQuantity BlockingStrategy = "quantity"
	// BlockingLeadingWord partitions by the first significant word
	BlockingLeadingWord BlockingStrategy = "leading_word"
)

// CanonicalNamePolicy selects how a group's display name is chosen
type CanonicalNamePolicy string

const (
	// CanonicalLongest picks the longest raw member name
	CanonicalLongest CanonicalNamePolicy = "longest"
	// CanonicalStorePriority picks the member from the earliest configured store
	CanonicalStorePriority CanonicalNamePolicy = "store_priority"
)

// Preset names
const (
	PresetGated    = "gated"
	PresetBalanced = "balanced"
	PresetLenient  = "lenient"
)

// MatchPolicy is the full set of tunable matching parameters
type MatchPolicy struct {
	// Threshold is the score a candidate must exceed to join a group
	Threshold float64

	TextWeight    float64
	OverlapWeight float64
	// Bonuses are added on top of the weighted sum, then the score is capped at 1
	BrandBonus    float64
	QuantityBonus float64

	// QuantityGate rejects pairs whose known pack sizes differ
	QuantityGate bool
	// MissingQuantityGate rejects pairs where only one side has a pack size
	MissingQuantityGate bool
	// BrandGate rejects pairs whose known brands differ
	BrandGate bool

	MinCommonWords          int
	MinCommonWordsWithBrand int

	// BorderlineMargin is the width of the band below Threshold in which a
	// confirmation oracle is consulted
	BorderlineMargin float64

	Blocking      BlockingStrategy
	CanonicalName CanonicalNamePolicy
}

// DefaultMatchPolicy returns the gated policy
func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		Threshold:               0.75,
		TextWeight:              0.6,
		OverlapWeight:           0.4,
		QuantityGate:            true,
		MissingQuantityGate:     true,
		BrandGate:               true,
		MinCommonWords:          2,
		MinCommonWordsWithBrand: 1,
		BorderlineMargin:        0.1,
		Blocking:                BlockingQuantity,
		CanonicalName:           CanonicalLongest,
	}
}

// PresetPolicy returns one of the named policies
func PresetPolicy(name string) (MatchPolicy, error) {
	policy := DefaultMatchPolicy()

	switch name {
	case "", PresetGated:
	case PresetBalanced:
		policy.Threshold = 0.65
		policy.BrandBonus = 0.05
	case PresetLenient:
		policy.Threshold = 0.5
		policy.MissingQuantityGate = false
		policy.BrandBonus = 0.1
		policy.QuantityBonus = 0.1
		policy.Blocking = BlockingNone
	default:
		return MatchPolicy{}, fmt.Errorf("%w: unknown preset %q", domain.ErrInvalidPolicy, name)
	}

	return policy, nil
}

// Validate checks that the policy can be applied
func (p MatchPolicy) Validate() error {
	if p.Threshold <= 0 || p.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in (0, 1], got %v", domain.ErrInvalidPolicy, p.Threshold)
	}
	if p.TextWeight < 0 || p.OverlapWeight < 0 || p.TextWeight+p.OverlapWeight <= 0 {
		return fmt.Errorf("%w: weights must be non-negative with a positive sum", domain.ErrInvalidPolicy)
	}
	if p.BrandBonus < 0 || p.QuantityBonus < 0 {
		return fmt.Errorf("%w: bonuses must be non-negative", domain.ErrInvalidPolicy)
	}
	if p.MinCommonWords < 1 || p.MinCommonWordsWithBrand < 1 {
		return fmt.Errorf("%w: minimum common words must be at least 1", domain.ErrInvalidPolicy)
	}
	if p.BorderlineMargin < 0 || p.BorderlineMargin >= p.Threshold {
		return fmt.Errorf("%w: borderline margin must be in [0, threshold)", domain.ErrInvalidPolicy)
	}

	switch p.Blocking {
	case BlockingNone, BlockingQuantity, BlockingLeadingWord:
	default:
		return fmt.Errorf("%w: unknown blocking strategy %q", domain.ErrInvalidPolicy, p.Blocking)
	}
	if p.Blocking == BlockingQuantity && !p.MissingQuantityGate {
		return fmt.Errorf("%w: quantity blocking requires the missing quantity gate", domain.ErrInvalidPolicy)
	}

	switch p.CanonicalName {
	case CanonicalLongest, CanonicalStorePriority:
	default:
		return fmt.Errorf("%w: unknown canonical name policy %q", domain.ErrInvalidPolicy, p.CanonicalName)
	}

	return nil
}
