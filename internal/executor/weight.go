package executor

import "github.com/behrlich/goclx/internal/constants"

// Weight computes a device's capacity score: spec.md §3's
// w = floor((compute_units*clock_MHz)/100) + floor(global_mem_MiB/10).
// Kept as a pure function, unit-tested independently of native.API, the
// same separation the teacher keeps between buildFeatureFlags (pure) and
// SubmitCtrlCmd (syscall).
func Weight(computeUnits, clockMHz uint32, globalMemMiB uint64) uint64 {
	compute := (uint64(computeUnits) * uint64(clockMHz)) / constants.WeightComputeDivisor
	mem := globalMemMiB / constants.WeightMemoryDivisor
	return compute + mem
}
