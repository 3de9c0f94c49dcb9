package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pricelens/backend/internal/domain"
)

// GrouperConfig holds configuration for the match grouper
type GrouperConfig struct {
	Policy MatchPolicy
	// Oracle is consulted for borderline scores; nil disables confirmation
	Oracle              domain.ConfirmationOracle
	MinOracleConfidence float64
	// Workers bounds how many blocks are grouped concurrently
	Workers            int
	EnableDebugLogging bool
}

// MatchGrouper clusters analyzed entries from different stores into match groups
type MatchGrouper struct {
	scorer              *SimilarityScorer
	policy              MatchPolicy
	oracle              domain.ConfirmationOracle
	minOracleConfidence float64
	workers             int
	enableDebugLogging  bool
}

// NewMatchGrouper creates a grouper that scores pairs with scorer
func NewMatchGrouper(scorer *SimilarityScorer, config GrouperConfig) *MatchGrouper {
	workers := config.Workers
	if workers <= 0 {
		workers = 4
	}

	minConfidence := config.MinOracleConfidence
	if minConfidence <= 0 {
		minConfidence = 0.8
	}

	return &MatchGrouper{
		scorer:              scorer,
		policy:              config.Policy,
		oracle:              config.Oracle,
		minOracleConfidence: minConfidence,
		workers:             workers,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// seededGroup remembers the scan position of a group's seed for ordering
type seededGroup struct {
	seed  int
	group domain.MatchGroup
}

// Group runs a greedy single pass over entries in their given order. Each
// unmatched entry seeds a group; later unmatched entries from stores not yet
// in the group join it when their score against the seed exceeds the policy
// threshold. Groups with a single member are dropped.
//
// Entries are first partitioned into blocks by the policy's blocking key and
// blocks are grouped concurrently. Output follows the order in which groups
// were opened, so the result is deterministic for a fixed input order.
// Reordering the input can change which candidate a seed claims first.
func (g *MatchGrouper) Group(ctx context.Context, entries []domain.AnalyzedEntry) ([]domain.MatchGroup, error) {
	if len(entries) < 2 {
		return []domain.MatchGroup{}, nil
	}

	blocks := g.partition(entries)
	results := make([][]seededGroup, len(blocks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, block := range blocks {
		eg.Go(func() error {
			groups, err := g.groupBlock(egCtx, entries, block)
			if err != nil {
				return err
			}
			results[i] = groups
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []seededGroup
	for _, r := range results {
		merged = append(merged, r...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].seed < merged[j].seed })

	groups := make([]domain.MatchGroup, 0, len(merged))
	for _, sg := range merged {
		if err := ValidateGroup(sg.group); err != nil {
			return nil, err
		}
		groups = append(groups, sg.group)
	}

	if g.enableDebugLogging {
		log.Printf("[GROUP] %d entries in %d blocks → %d groups", len(entries), len(blocks), len(groups))
	}

	return groups, nil
}

// partition splits entry indices into blocks, in order of each key's first appearance
func (g *MatchGrouper) partition(entries []domain.AnalyzedEntry) [][]int {
	index := make(map[string]int)
	var blocks [][]int

	for i, e := range entries {
		key := g.blockKey(e)
		b, ok := index[key]
		if !ok {
			b = len(blocks)
			index[key] = b
			blocks = append(blocks, nil)
		}
		blocks[b] = append(blocks[b], i)
	}
	return blocks
}

func (g *MatchGrouper) blockKey(e domain.AnalyzedEntry) string {
	switch g.policy.Blocking {
	case BlockingQuantity:
		return e.Features.Size()
	case BlockingLeadingWord:
		if len(e.Features.SignificantWords) > 0 {
			return e.Features.SignificantWords[0]
		}
		return ""
	default:
		return ""
	}
}

// groupBlock is the greedy O(n²) pass over one block
func (g *MatchGrouper) groupBlock(ctx context.Context, entries []domain.AnalyzedEntry, block []int) ([]seededGroup, error) {
	matched := make([]bool, len(block))
	var groups []seededGroup

	for i := range block {
		if matched[i] {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		seed := entries[block[i]]
		matched[i] = true
		group := domain.MatchGroup{Members: []domain.AnalyzedEntry{seed}}

		for j := i + 1; j < len(block); j++ {
			if matched[j] {
				continue
			}
			candidate := entries[block[j]]
			if group.HasStore(candidate.Entry.Store) || !quantityCompatible(group, candidate) {
				continue
			}

			if g.accept(ctx, seed, candidate) {
				group.Members = append(group.Members, candidate)
				matched[j] = true
			}
		}

		if len(group.Members) >= 2 {
			groups = append(groups, seededGroup{seed: block[i], group: group})
		}
	}

	return groups, nil
}

// accept decides whether candidate joins the group opened by seed
func (g *MatchGrouper) accept(ctx context.Context, seed, candidate domain.AnalyzedEntry) bool {
	score := g.scorer.Score(seed, candidate)

	if g.enableDebugLogging && score > 0 {
		log.Printf("[SCORE] %s %q ↔ %s %q = %.3f",
			seed.Entry.Store, seed.Entry.Name, candidate.Entry.Store, candidate.Entry.Name, score)
	}

	if score > g.policy.Threshold {
		return true
	}

	if g.oracle == nil || score <= 0 || score < g.policy.Threshold-g.policy.BorderlineMargin {
		return false
	}

	confirmation, err := g.oracle.Confirm(ctx, seed.Entry, candidate.Entry)
	if err != nil {
		log.Printf("[ORACLE] Confirmation failed for %q ↔ %q: %v", seed.Entry.Name, candidate.Entry.Name, err)
		return false
	}

	if g.enableDebugLogging {
		log.Printf("[ORACLE] %q ↔ %q: match=%v confidence=%.2f",
			seed.Entry.Name, candidate.Entry.Name, confirmation.IsMatch, confirmation.Confidence)
	}

	return confirmation.IsMatch && confirmation.Confidence >= g.minOracleConfidence
}

// quantityCompatible keeps the group's known pack sizes pairwise equal even
// when the policy's quantity gates are switched off
func quantityCompatible(group domain.MatchGroup, candidate domain.AnalyzedEntry) bool {
	if !candidate.Features.HasQuantity() {
		return true
	}
	for _, m := range group.Members {
		if m.Features.HasQuantity() && !m.Features.SameQuantity(candidate.Features) {
			return false
		}
	}
	return true
}

// ValidateGroup checks the store-uniqueness and quantity-consistency invariants
func ValidateGroup(group domain.MatchGroup) error {
	stores := make(map[string]bool, len(group.Members))
	var size *domain.ProductFeatures

	for _, m := range group.Members {
		if stores[m.Entry.Store] {
			return fmt.Errorf("%w: store %q contributes more than one member to group seeded by %q",
				domain.ErrIntegrityViolation, m.Entry.Store, group.Members[0].Entry.Name)
		}
		stores[m.Entry.Store] = true

		if !m.Features.HasQuantity() {
			continue
		}
		if size == nil {
			f := m.Features
			size = &f
			continue
		}
		if !size.SameQuantity(m.Features) {
			return fmt.Errorf("%w: pack sizes %s and %s in group seeded by %q",
				domain.ErrIntegrityViolation, size.Size(), m.Features.Size(), group.Members[0].Entry.Name)
		}
	}
	return nil
}
