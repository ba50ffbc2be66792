// Package native defines the abstract surface goclx consumes from an
// OpenCL-class heterogeneous compute API. It is deliberately the one
// external collaborator named but not implemented: production code wires a
// real cgo ICD binding behind this interface (see real_stub.go); tests and
// the rest of this repository drive the in-memory simulation in the fake
// subpackage.
package native

import "unsafe"

// Pointer is an opaque native handle. goclx never dereferences it directly;
// only an API implementation understands its bits.
type Pointer uintptr

// Kind enumerates the eleven resource kinds spec.md's data model names.
// Platform is the one kind that is not reference-counted.
type Kind int

const (
	KindPlatform Kind = iota
	KindDevice
	KindContext
	KindQueue
	KindBuffer
	KindImage
	KindSharedRegion
	KindPipe
	KindProgram
	KindKernel
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindPlatform:
		return "Platform"
	case KindDevice:
		return "Device"
	case KindContext:
		return "Context"
	case KindQueue:
		return "Queue"
	case KindBuffer:
		return "Buffer"
	case KindImage:
		return "Image"
	case KindSharedRegion:
		return "SharedRegion"
	case KindPipe:
		return "Pipe"
	case KindProgram:
		return "Program"
	case KindKernel:
		return "Kernel"
	case KindEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Platform, Device, ... are Pointer aliases typed per resource kind so the
// native package's signatures stay self-documenting; internal/handle is the
// layer that turns these into reference-counted owners.
type (
	Platform     = Pointer
	Device       = Pointer
	Context      = Pointer
	Queue        = Pointer
	Buffer       = Pointer
	Image        = Pointer
	SharedRegion = Pointer
	Pipe         = Pointer
	Program      = Pointer
	Kernel       = Pointer
	Event        = Pointer
)

// InfoKey names a per-device, per-program, or per-event info query. The
// numeric values are not meaningful outside a given API implementation;
// they exist so internal/decode and internal/capability have a stable,
// typed key to pass through DeviceInfo/ProgramInfo calls.
type InfoKey int

const (
	InfoDeviceName InfoKey = iota
	InfoDeviceVersion
	InfoDeviceMaxComputeUnits
	InfoDeviceMaxClockFrequency
	InfoDeviceGlobalMemSize
	InfoDeviceSVMCapabilities
	InfoDevicePipeSupport
	InfoDeviceNonUniformWorkGroupSupport
	InfoDeviceProfilingTimerResolution
	InfoDevicePreferredWorkGroupSizeMultiple
	InfoDeviceExtensions
)

// EventState mirrors spec.md §3's monotone, one-way event state machine.
type EventState int

const (
	EventQueued EventState = iota
	EventSubmitted
	EventRunning
	EventComplete
	EventFailed
)

func (s EventState) String() string {
	switch s {
	case EventQueued:
		return "Queued"
	case EventSubmitted:
		return "Submitted"
	case EventRunning:
		return "Running"
	case EventComplete:
		return "Complete"
	case EventFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether a state can no longer transition.
func (s EventState) Terminal() bool {
	return s == EventComplete || s == EventFailed
}

// MemFlags is a bitmask passed to CreateBuffer/CreateImage, mirroring the
// read/write/host-pointer flag combinations a real cl_mem_flags value
// carries.
type MemFlags uint64

const (
	MemReadWrite MemFlags = 1 << iota
	MemReadOnly
	MemWriteOnly
	MemUseHostPtr
	MemAllocHostPtr
	MemCopyHostPtr
)

// ProfilingTimestamps are nanosecond timestamps of an event's four
// lifecycle transitions, only meaningful when the owning queue was created
// with the profiling property (spec.md §3).
type ProfilingTimestamps struct {
	Queued    int64
	Submitted int64
	Started   int64
	Ended     int64
}

// ImageDescriptor describes the shape of an image memory object.
type ImageDescriptor struct {
	ChannelOrder    int
	ChannelDataType int
	Width           int
	Height          int
	Depth           int
}

// API is the thin native collaborator spec.md §1 names as deliberately out
// of scope: "The spec assumes such bindings exist and names only the
// operations it consumes." Every method here is one of those operations.
type API interface {
	EnumeratePlatforms() ([]Platform, error)
	EnumerateDevices(p Platform) ([]Device, error)
	PlatformInfo(p Platform, key InfoKey) ([]byte, error)
	DeviceInfo(d Device, key InfoKey) ([]byte, error)

	CreateContext(devices []Device) (Context, error)
	CreateQueueWithProperties(ctx Context, d Device, profiling, outOfOrder bool) (Queue, error)
	CreateQueueLegacy(ctx Context, d Device, profiling bool) (Queue, error)

	CreateBuffer(ctx Context, flags MemFlags, size int) (Buffer, error)
	CreateImage(ctx Context, flags MemFlags, desc ImageDescriptor) (Image, error)
	CreateSharedRegion(ctx Context, size int) (SharedRegion, error)
	MapSharedRegion(ctx Context, q Queue, r SharedRegion) (unsafe.Pointer, error)
	UnmapSharedRegion(ctx Context, q Queue, r SharedRegion, ptr unsafe.Pointer) error
	FreeSharedRegion(ctx Context, r SharedRegion) error
	CreatePipe(ctx Context, packetSize, maxPackets int) (Pipe, error)

	CreateProgramWithSource(ctx Context, src string) (Program, error)
	CreateProgramWithBinary(ctx Context, devices []Device, binaries [][]byte) (Program, error)
	BuildProgram(p Program, devices []Device, options string) error
	ProgramBinarySizes(p Program, devices []Device) ([]int, error)
	ProgramBinaries(p Program, devices []Device, sizes []int) ([][]byte, error)
	BuildLog(p Program, d Device) (string, error)

	CreateKernel(p Program, name string) (Kernel, error)
	SetKernelArg(k Kernel, index int, size int, value unsafe.Pointer) error
	SetKernelArgSVM(k Kernel, index int, ptr unsafe.Pointer) error
	PreferredWorkGroupSizeMultiple(k Kernel, d Device) (int, error)

	EnqueueNDRange(q Queue, k Kernel, offset, global, local []int, wait []Event) (Event, error)
	EnqueueReadBuffer(q Queue, b Buffer, dst []byte, offset int, wait []Event) (Event, error)
	EnqueueReadImage(q Queue, img Image, dst []byte, region [3]int, wait []Event) (Event, error)
	EnqueueWritePipe(q Queue, p Pipe, src []byte, wait []Event) (Event, error)
	EnqueueReadPipe(q Queue, p Pipe, dst []byte, wait []Event) (Event, error)

	EventSetCallback(e Event, cb func(status EventState))
	EventProfilingInfo(e Event) (ProfilingTimestamps, error)

	Retain(kind Kind, p Pointer) error
	Release(kind Kind, p Pointer) error
}
