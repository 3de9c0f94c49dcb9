package usecase

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/pricelens/backend/internal/domain"
)

// Reject reasons reported by Explain
const (
	RejectQuantityMismatch    = "quantity_mismatch"
	RejectQuantityMissing     = "quantity_missing"
	RejectBrandMismatch       = "brand_mismatch"
	RejectInsufficientOverlap = "insufficient_overlap"
)

// SimilarityScorer computes a bounded, symmetric match score between two analyzed entries
type SimilarityScorer struct {
	policy      MatchPolicy
	levenshtein *metrics.Levenshtein
}

// NewSimilarityScorer creates a scorer for the given policy
func NewSimilarityScorer(policy MatchPolicy) *SimilarityScorer {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = true

	return &SimilarityScorer{
		policy:      policy,
		levenshtein: lev,
	}
}

// Score returns the match score in [0, 1]
func (s *SimilarityScorer) Score(a, b domain.AnalyzedEntry) float64 {
	return s.Explain(a, b).Score
}

// Explain scores a pair and reports how the score was reached.
// Hard gates short-circuit to 0 before any text comparison happens.
func (s *SimilarityScorer) Explain(a, b domain.AnalyzedEntry) domain.ScoreBreakdown {
	fa, fb := a.Features, b.Features

	switch {
	case s.policy.QuantityGate && fa.HasQuantity() && fb.HasQuantity() && !fa.SameQuantity(fb):
		return domain.ScoreBreakdown{RejectReason: RejectQuantityMismatch}
	case s.policy.MissingQuantityGate && fa.HasQuantity() != fb.HasQuantity():
		return domain.ScoreBreakdown{RejectReason: RejectQuantityMissing}
	case s.policy.BrandGate && fa.Brand != "" && fb.Brand != "" && fa.Brand != fb.Brand:
		return domain.ScoreBreakdown{RejectReason: RejectBrandMismatch}
	}

	brandMatch := fa.Brand != "" && fa.Brand == fb.Brand
	common := commonWords(fa.SignificantWords, fb.SignificantWords)

	required := s.policy.MinCommonWords
	if brandMatch {
		required = s.policy.MinCommonWordsWithBrand
	}
	if len(common) < required || len(common) == 0 {
		return domain.ScoreBreakdown{
			CommonWords:  common,
			BrandMatch:   brandMatch,
			RejectReason: RejectInsufficientOverlap,
		}
	}

	overlap := float64(len(common)) / float64(min(len(fa.SignificantWords), len(fb.SignificantWords)))
	text := s.tokenSetRatio(a.Normalized, b.Normalized)

	score := s.policy.TextWeight*text + s.policy.OverlapWeight*overlap
	if brandMatch {
		score += s.policy.BrandBonus
	}
	if fa.HasQuantity() && fb.HasQuantity() && fa.SameQuantity(fb) {
		score += s.policy.QuantityBonus
	}

	return domain.ScoreBreakdown{
		Score:        clamp01(score),
		TextRatio:    text,
		OverlapRatio: overlap,
		CommonWords:  common,
		BrandMatch:   brandMatch,
	}
}

// tokenSetRatio compares the shared tokens against each side's full token set
// and returns the best normalized Levenshtein similarity. Word order and extra
// tokens present on only one side are penalized far less than by a plain ratio.
func (s *SimilarityScorer) tokenSetRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	setA := uniqueTokens(a)
	setB := uniqueTokens(b)

	var inter, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := s.ratio(t1, t2)
	if t0 != "" {
		best = max(best, s.ratio(t0, t1), s.ratio(t0, t2))
	}
	return best
}

func (s *SimilarityScorer) ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return strutil.Similarity(a, b, s.levenshtein)
}

func uniqueTokens(s string) map[string]bool {
	tokens := strings.Fields(s)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// commonWords returns the words present in both lists, in the order of a
func commonWords(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, w := range b {
		set[w] = true
	}

	var common []string
	for _, w := range a {
		if set[w] {
			common = append(common, w)
			delete(set, w)
		}
	}
	return common
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
