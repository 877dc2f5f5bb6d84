package config

import "errors"

// Validation errors returned by AppConfig.Validate.
var (
	ErrNoDataDir         = errors.New("no data directory: set --data-dir")
	ErrInvalidBackend    = errors.New("invalid backend: must be json or sqlite")
	ErrInvalidBudget     = errors.New("invalid budget: must not be negative")
	ErrInvalidCheckpoint = errors.New("invalid checkpoint mode: must be each or end")
	ErrEmptyGeoTag       = errors.New("empty geo tag")
	ErrInvalidSeedLimit  = errors.New("invalid seed limit: must be between 1 and 100")
	ErrInvalidBatchSize  = errors.New("invalid batch size: must be positive")
	ErrInvalidInterval   = errors.New("invalid interval: must not be negative")
)
