package goclx

import "github.com/behrlich/goclx/internal/constants"

// Re-export a handful of internal defaults callers may want to reference
// without importing internal/constants directly.
const (
	WeightComputeDivisor    = constants.WeightComputeDivisor
	WeightMemoryDivisor     = constants.WeightMemoryDivisor
	DefaultProfilingEnabled = constants.DefaultProfilingEnabled
	ArtifactExtension       = constants.ArtifactExtension
)
