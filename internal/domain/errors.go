package domain

import "errors"

var (
	// ErrIntegrityViolation is returned when a match group breaks a grouping invariant
	// (two members from one store, or conflicting pack sizes). It signals a logic defect.
	ErrIntegrityViolation = errors.New("match group integrity violation")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownStore is returned when a catalog names a store that is not configured
	ErrUnknownStore = errors.New("store is not configured")

	// ErrInvalidPolicy is returned when a match policy cannot be applied
	ErrInvalidPolicy = errors.New("invalid match policy")

	// ErrInvalidCatalog is returned when a catalog export cannot be read
	ErrInvalidCatalog = errors.New("invalid catalog export")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrOracleFailure is returned when the confirmation oracle request fails
	ErrOracleFailure = errors.New("confirmation oracle request failed")
)
