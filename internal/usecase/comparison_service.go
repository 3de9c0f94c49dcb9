package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/vocabulary"
)

// ComparisonServiceConfig holds configuration for the comparison service
type ComparisonServiceConfig struct {
	// Stores is the configured store order: scan order and price column order
	Stores              []string
	Policy              MatchPolicy
	Vocabulary          *vocabulary.Vocabulary
	FoldDiacritics      bool
	ExcludeOutOfStock   bool
	MaxPlausiblePrice   float64
	Oracle              domain.ConfirmationOracle
	MinOracleConfidence float64
	Workers             int
	CacheTTL            time.Duration
	EnableDebugLogging  bool
}

// ComparisonService runs the matching pipeline:
// entries → normalized → featured → grouped → canonical records
type ComparisonService struct {
	cache              domain.CacheRepository
	stores             []string
	storeIndex         map[string]int
	policy             MatchPolicy
	vocabVersion       string
	normalizer         *Normalizer
	extractor          *FeatureExtractor
	scorer             *SimilarityScorer
	grouper            *MatchGrouper
	selector           *CanonicalSelector
	emitter            *ComparisonEmitter
	excludeOutOfStock  bool
	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewComparisonService creates a comparison service. cache may be nil.
func NewComparisonService(cache domain.CacheRepository, config ComparisonServiceConfig) (*ComparisonService, error) {
	if err := config.Policy.Validate(); err != nil {
		return nil, err
	}
	if len(config.Stores) == 0 {
		return nil, fmt.Errorf("%w: at least one store must be configured", domain.ErrInvalidRequest)
	}

	storeIndex := make(map[string]int, len(config.Stores))
	for i, s := range config.Stores {
		if s == "" {
			return nil, fmt.Errorf("%w: empty store identifier", domain.ErrInvalidRequest)
		}
		if _, dup := storeIndex[s]; dup {
			return nil, fmt.Errorf("%w: store %q configured twice", domain.ErrInvalidRequest, s)
		}
		storeIndex[s] = i
	}

	vocab := config.Vocabulary
	if vocab == nil {
		vocab = vocabulary.Default()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	scorer := NewSimilarityScorer(config.Policy)
	prices := NewPriceParser(config.MaxPlausiblePrice)

	return &ComparisonService{
		cache:        cache,
		stores:       config.Stores,
		storeIndex:   storeIndex,
		policy:       config.Policy,
		vocabVersion: vocab.Version,
		normalizer:   NewNormalizer(vocab, config.FoldDiacritics, config.EnableDebugLogging),
		extractor:    NewFeatureExtractor(vocab, config.FoldDiacritics),
		scorer:       scorer,
		grouper: NewMatchGrouper(scorer, GrouperConfig{
			Policy:              config.Policy,
			Oracle:              config.Oracle,
			MinOracleConfidence: config.MinOracleConfidence,
			Workers:             config.Workers,
			EnableDebugLogging:  config.EnableDebugLogging,
		}),
		selector:           NewCanonicalSelector(config.Stores, prices, config.Policy.CanonicalName),
		emitter:            NewComparisonEmitter(config.Stores),
		excludeOutOfStock:  config.ExcludeOutOfStock,
		cacheTTL:           cacheTTL,
		enableDebugLogging: config.EnableDebugLogging,
	}, nil
}

// Stores returns the configured store order
func (s *ComparisonService) Stores() []string {
	return s.stores
}

// Emitter returns an emitter over the configured stores
func (s *ComparisonService) Emitter() *ComparisonEmitter {
	return s.emitter
}

// Analyze normalizes an entry and extracts its features
func (s *ComparisonService) Analyze(entry domain.CatalogEntry) domain.AnalyzedEntry {
	normalized := s.normalizer.Normalize(entry.Name)
	return domain.AnalyzedEntry{
		Entry:      entry,
		Normalized: normalized,
		Features:   s.extractor.Extract(normalized),
	}
}

// Explain scores two entries and reports how the score was reached
func (s *ComparisonService) Explain(a, b domain.CatalogEntry) domain.ScoreBreakdown {
	return s.scorer.Explain(s.Analyze(a), s.Analyze(b))
}

// Compare matches the catalogs across stores and returns one record per
// multi-store group, in the order groups were opened. The returned records
// are owned by the caller; cached results are copied on the way in and out.
// Flow: check cache -> order & analyze -> group -> canonicalize -> cache -> return
func (s *ComparisonService) Compare(ctx context.Context, catalogs []domain.StoreCatalog) ([]domain.ComparisonRecord, error) {
	for _, c := range catalogs {
		if _, ok := s.storeIndex[c.Store]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStore, c.Store)
		}
	}

	entries := s.orderEntries(catalogs)

	cacheKey, err := s.generateCacheKey(entries)
	if err == nil {
		if cached, ok := s.getFromCache(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	if distinctStores(entries) < 2 {
		return []domain.ComparisonRecord{}, nil
	}

	analyzed := s.analyzeAll(entries)

	groups, err := s.grouper.Group(ctx, analyzed)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ComparisonRecord, 0, len(groups))
	for _, g := range groups {
		record, err := s.selector.Canonicalize(g)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	log.Printf("[COMPARE] %d entries from %d catalogs → %d comparison records", len(entries), len(catalogs), len(records))

	if cacheKey != "" && s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, cloneRecords(records), s.cacheTTL); err != nil {
			log.Printf("[COMPARE] Failed to cache result: %v", err)
		}
	}

	return records, nil
}

// orderEntries concatenates catalogs in configured store order, stamping each
// entry with its catalog's store and dropping out-of-stock entries if configured
func (s *ComparisonService) orderEntries(catalogs []domain.StoreCatalog) []domain.CatalogEntry {
	var entries []domain.CatalogEntry
	for _, store := range s.stores {
		for _, c := range catalogs {
			if c.Store != store {
				continue
			}
			for _, e := range c.Entries {
				if s.excludeOutOfStock && e.InStock != nil && !*e.InStock {
					continue
				}
				e.Store = store
				entries = append(entries, e)
			}
		}
	}
	return entries
}

// analyzeAll derives normalized names and features, once per distinct raw name
func (s *ComparisonService) analyzeAll(entries []domain.CatalogEntry) []domain.AnalyzedEntry {
	type analysis struct {
		normalized string
		features   domain.ProductFeatures
	}
	seen := make(map[string]analysis)

	analyzed := make([]domain.AnalyzedEntry, 0, len(entries))
	for _, e := range entries {
		a, ok := seen[e.Name]
		if !ok {
			normalized := s.normalizer.Normalize(e.Name)
			a = analysis{normalized: normalized, features: s.extractor.Extract(normalized)}
			seen[e.Name] = a
		}
		analyzed = append(analyzed, domain.AnalyzedEntry{
			Entry:      e,
			Normalized: a.normalized,
			Features:   a.features,
		})
	}
	return analyzed
}

// generateCacheKey fingerprints the ordered entries, the policy and the vocabulary version.
// Format: "comparison:{sha256}"
func (s *ComparisonService) generateCacheKey(entries []domain.CatalogEntry) (string, error) {
	if s.cache == nil {
		return "", nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write(payload)
	fmt.Fprintf(h, "|%+v|%s|%s|%v", s.policy, s.vocabVersion, strings.Join(s.stores, ","), s.excludeOutOfStock)
	return "comparison:" + hex.EncodeToString(h.Sum(nil)), nil
}

func (s *ComparisonService) getFromCache(ctx context.Context, key string) ([]domain.ComparisonRecord, bool) {
	if s.cache == nil || key == "" {
		return nil, false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	records, ok := value.([]domain.ComparisonRecord)
	if !ok {
		return nil, false
	}

	if s.enableDebugLogging {
		log.Printf("[COMPARE] Cache hit: %s", key)
	}
	return cloneRecords(records), true
}

func cloneRecords(records []domain.ComparisonRecord) []domain.ComparisonRecord {
	out := make([]domain.ComparisonRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func distinctStores(entries []domain.CatalogEntry) int {
	stores := make(map[string]bool)
	for _, e := range entries {
		stores[e.Store] = true
	}
	return len(stores)
}
