package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ConfirmationOracle adjudicates borderline match decisions.
// It is optional; the matching engine is complete without one.
type ConfirmationOracle interface {
	Confirm(ctx context.Context, a, b CatalogEntry) (Confirmation, error)
}
