package config

import "errors"

// Sentinel errors for configuration validation
var (
	ErrSeedNotFound    = errors.New("seed file not found")
	ErrInvalidSeed     = errors.New("invalid seed file")
	ErrInvalidBackend  = errors.New("invalid backend")
	ErrMissingRequired = errors.New("required setting is missing")
)

// Context keys for error values
const (
	SeedPathKey = "seed_path"
	BackendKey  = "backend"
	FlagKey     = "flag"
)
