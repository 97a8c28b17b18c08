package selection

import "errors"

var (
	// ErrDimensionMismatch reports inconsistent mu / cov / ticker lengths
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidParameter reports budget, depth, grid or shots out of range
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDegenerateAsset reports a zero-variance asset in the fallback ratio
	ErrDegenerateAsset = errors.New("degenerate asset")
	// ErrSamplerFailure wraps errors returned by the sampler
	ErrSamplerFailure = errors.New("sampler failure")
	// ErrSearchTooLarge reports a grid whose evaluation count exceeds the configured ceiling
	ErrSearchTooLarge = errors.New("search exceeds evaluation ceiling")
)
