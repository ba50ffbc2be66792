// Package constants holds default tunables shared across goclx's internal
// packages. Nothing here is a CLI flag or an env var; the core accepts no
// configuration surface beyond what callers pass to constructors.
package constants

// Capability defaults
const (
	// CapabilitySaturationMajor/Minor is the version ceiling: any device
	// reporting a version beyond this saturates to it rather than producing
	// an unbounded ordinal.
	CapabilitySaturationMajor = 3
	CapabilitySaturationMinor = 0

	// PropertyQueueMinMajor is the version at or above which queue
	// construction uses the property-list creation path instead of the
	// legacy path.
	PropertyQueueMinMajor = 2
	PropertyQueueMinMinor = 0
)

// Executor defaults
const (
	// WeightComputeDivisor and WeightMemoryDivisor are the two divisors in
	// the device weight formula: w = (cu*mhz)/WeightComputeDivisor +
	// (mem_mib)/WeightMemoryDivisor.
	WeightComputeDivisor = 100
	WeightMemoryDivisor  = 10
)

// Task/Pipeline defaults
const (
	// DefaultProfilingEnabled matches the Task Builder's default of
	// profiling off unless a caller opts in.
	DefaultProfilingEnabled = false

	// DefaultGlobalSizeAxis and DefaultGlobalOffsetAxis are substituted when a Task
	// never calls WithWork: a single work-item at the origin.
	DefaultGlobalSizeAxis   = 1
	DefaultGlobalOffsetAxis = 0
)

// Program cache defaults
const (
	// ArtifactExtension is the suffix of a cached device-binary artifact.
	ArtifactExtension = ".bin"
)
