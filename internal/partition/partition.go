// Package partition implements C7 Work Partitioner: splitting one
// global-size work descriptor across a weighted set of device queues.
// Grounded on internal/queue/pool.go's size-threshold bucketing for the
// "bucket by a computed boundary, special-case the overflow" shape, and on
// runner.go's CPU-affinity round-robin for "distribute N things across M
// workers proportionally."
package partition

import (
	"fmt"

	"github.com/behrlich/goclx"
	"github.com/behrlich/goclx/internal/capability"
	"github.com/behrlich/goclx/internal/handle"
)

// WorkDescriptor names the shape of one kernel launch, in up to three
// dimensions. Partitioning (spec.md's decided axis-0-only scope, see
// Open Questions) only ever splits GlobalSize[0]; axes 1-2 pass through
// to every device unchanged.
type WorkDescriptor struct {
	Dims         int
	GlobalOffset [3]int
	GlobalSize   [3]int
	LocalSize    *[3]int
}

// Submission is one device queue's share of a partitioned launch.
type Submission struct {
	Queue  *handle.Handle
	Offset [3]int
	Size   [3]int
	Local  *[3]int
}

// Partition splits wd across queues in proportion to weights, using
// floor division per device with the last active device absorbing
// whatever remains (spec.md §4.7). A device whose proportional share
// floors to zero is skipped entirely, except the final device, which
// always receives a submission (it must absorb the remainder even when
// its own floor share was zero).
func Partition(wd WorkDescriptor, queues []*handle.Handle, weights []uint64) ([]Submission, error) {
	if len(queues) != len(weights) {
		return nil, fmt.Errorf("partition: %d queues but %d weights", len(queues), len(weights))
	}
	if len(queues) == 0 {
		return nil, goclx.NewError("partition.Partition", goclx.ErrPlatformsNotFound, "no queues to partition across")
	}

	total := wd.GlobalSize[0]
	var totalWeight uint64
	for _, w := range weights {
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil, fmt.Errorf("partition: total device weight is zero")
	}

	var subs []Submission
	assigned := 0
	for i := 0; i < len(queues)-1; i++ {
		share := int((uint64(total) * weights[i]) / totalWeight)
		if share == 0 {
			continue
		}
		subs = append(subs, Submission{
			Queue:  queues[i],
			Offset: offsetFor(wd, wd.GlobalOffset[0]+assigned),
			Size:   sizeFor(wd, share),
			Local:  wd.LocalSize,
		})
		assigned += share
	}

	remainder := total - assigned
	subs = append(subs, Submission{
		Queue:  queues[len(queues)-1],
		Offset: offsetFor(wd, wd.GlobalOffset[0]+assigned),
		Size:   sizeFor(wd, remainder),
		Local:  wd.LocalSize,
	})

	return subs, nil
}

func offsetFor(wd WorkDescriptor, axis0 int) [3]int {
	return [3]int{axis0, wd.GlobalOffset[1], wd.GlobalOffset[2]}
}

func sizeFor(wd WorkDescriptor, axis0 int) [3]int {
	return [3]int{axis0, wd.GlobalSize[1], wd.GlobalSize[2]}
}

// EffectiveDims returns wd.Dims, defaulting to 1 when unset (spec.md
// §4.7: a zero Dims means one-dimensional work).
func EffectiveDims(wd WorkDescriptor) int {
	if wd.Dims == 0 {
		return 1
	}
	return wd.Dims
}

// ChooseLocalSize resolves the local work-group size a launch should use,
// per spec.md §4.7:
//   - An explicit LocalSize always wins, trimmed to wd's effective
//     dimensionality (axes beyond it are zeroed; the caller only ever
//     reads the first EffectiveDims(wd) entries).
//   - Else, if the device supports non-uniform work-groups, pass the null
//     sentinel (let the runtime decide).
//   - Else, for 1-D work only, query the kernel's preferred work-group
//     size for the device via preferred and use it.
//   - Else (2-D/3-D without non-uniform support), pass the null sentinel.
func ChooseLocalSize(wd WorkDescriptor, caps capability.Capabilities, preferred func() (int, error)) (*[3]int, error) {
	dims := EffectiveDims(wd)

	if wd.LocalSize != nil {
		local := *wd.LocalSize
		for i := dims; i < 3; i++ {
			local[i] = 0
		}
		return &local, nil
	}
	if caps.NonUniformWorkGroups {
		return nil, nil
	}
	if dims != 1 {
		return nil, nil
	}
	size, err := preferred()
	if err != nil {
		return nil, fmt.Errorf("partition: preferred work-group size: %w", err)
	}
	local := [3]int{size, 1, 1}
	return &local, nil
}
