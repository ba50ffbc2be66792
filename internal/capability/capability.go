// Package capability implements C4 Capability Model: version parsing and
// feature gates derived from device info. New code — there is no direct
// teacher analogue for version-string parsing — but FromDeviceInfo is
// modeled line-for-line on the teacher's buildFeatureFlags
// (internal/ctrl/control.go), which ORs named bits together from boolean
// struct fields; here the same shape runs in reverse, reading booleans out
// of decoded info bytes instead of writing flag bits in.
package capability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/behrlich/goclx/internal/constants"
	"github.com/behrlich/goclx/internal/decode"
	"github.com/behrlich/goclx/internal/native"
)

// Version is an ordered (major, minor) pair, saturating at 3.0 per
// spec.md §4.4.
type Version struct {
	Major, Minor int
}

var (
	V1_0 = Version{1, 0}
	V1_1 = Version{1, 1}
	V1_2 = Version{1, 2}
	V2_0 = Version{2, 0}
	V2_1 = Version{2, 1}
	V2_2 = Version{2, 2}
	V3_0 = Version{3, 0}
)

// ParseVersion parses strings of the form "<API-prefix> <major>.<minor>[
// <extras>]", e.g. "OpenCL 2.1 NVIDIA CUDA 535.104.05". Anything beyond
// 3.0 saturates via SaturateTo3_0.
func ParseVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	for _, f := range fields {
		major, minor, ok := splitDotted(f)
		if ok {
			return Version{major, minor}.SaturateTo3_0(), nil
		}
	}
	return Version{}, fmt.Errorf("capability: no <major>.<minor> token found in %q", s)
}

func splitDotted(f string) (major, minor int, ok bool) {
	parts := strings.SplitN(f, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	maj, err1 := strconv.Atoi(parts[0])
	min, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return maj, min, true
}

// Compare returns -1, 0, or 1 the way a total order requires.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether v >= other.
func (v Version) AtLeast(other Version) bool {
	return v.Compare(other) >= 0
}

// SaturateTo3_0 clamps any version beyond the 3.0 ceiling (spec.md §4.4:
// "anything beyond 3.0 saturates to 3.0").
func (v Version) SaturateTo3_0() Version {
	ceiling := Version{constants.CapabilitySaturationMajor, constants.CapabilitySaturationMinor}
	if v.Compare(ceiling) > 0 {
		return ceiling
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Capabilities is the set of device feature flags: SharedVirtualMemory and
// Pipes report device support and are not consulted when the Task Builder
// binds arguments; NonUniformWorkGroups gates local-work-group selection (C7);
// Profiling gates whether a queue may be created with the profiling
// property.
type Capabilities struct {
	Version              Version
	SharedVirtualMemory  bool
	Pipes                bool
	NonUniformWorkGroups bool
	Profiling            bool
}

// FromDeviceInfo decodes a device's capability set from the raw info
// buffers a native.API.DeviceInfo call would return, keyed by InfoKey. The
// "unknown codes become Unknown(code)" rule for enumerated info types
// (spec.md §4.2) doesn't apply here since every key FromDeviceInfo reads
// is a boolean, a version string, or the uint64 profiling timer
// resolution; it's the kernel-arg/build-status enums
// elsewhere that would need an Unknown variant.
func FromDeviceInfo(raw map[native.InfoKey][]byte, dec decode.Decoder) (Capabilities, error) {
	versionBuf, ok := raw[native.InfoDeviceVersion]
	if !ok {
		return Capabilities{}, fmt.Errorf("capability: missing InfoDeviceVersion")
	}
	versionStr, err := dec.String(versionBuf)
	if err != nil {
		return Capabilities{}, err
	}
	version, err := ParseVersion(versionStr)
	if err != nil {
		return Capabilities{}, err
	}

	readBool := func(key native.InfoKey) (bool, error) {
		buf, ok := raw[key]
		if !ok {
			return false, nil
		}
		return dec.Bool(buf)
	}

	svm, err := readBool(native.InfoDeviceSVMCapabilities)
	if err != nil {
		return Capabilities{}, err
	}
	pipes, err := readBool(native.InfoDevicePipeSupport)
	if err != nil {
		return Capabilities{}, err
	}
	nonUniform, err := readBool(native.InfoDeviceNonUniformWorkGroupSupport)
	if err != nil {
		return Capabilities{}, err
	}

	// A device that doesn't support profiling reports a zero timer
	// resolution; a nonzero resolution is the closest native signal to
	// "this device's queues may be created with the profiling property."
	var profiling bool
	if buf, ok := raw[native.InfoDeviceProfilingTimerResolution]; ok {
		resolution, err := dec.Uint64(buf)
		if err != nil {
			return Capabilities{}, err
		}
		profiling = resolution > 0
	}

	propertyQueueCeiling := Version{constants.PropertyQueueMinMajor, constants.PropertyQueueMinMinor}

	return Capabilities{
		Version:              version,
		SharedVirtualMemory:  svm,
		Pipes:                pipes,
		NonUniformWorkGroups: nonUniform && version.AtLeast(propertyQueueCeiling),
		Profiling:            profiling,
	}, nil
}
