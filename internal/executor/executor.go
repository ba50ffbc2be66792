// Package executor implements C5 Executor: the per-device orchestration
// layer that turns an enumerated set of platforms/devices into a context,
// a queue per device, and the facade methods everything above this layer
// (internal/cache, internal/partition, task, pipeline) drives. Construction
// is grounded directly on backend.go's CreateAndServe: allocate every
// device slot first, and on any failure mid-construction, unwind everything
// already created ("Cleanup already created runners"); Close is the
// StopAndDelete analogue.
package executor

import (
	"fmt"
	"unsafe"

	"github.com/behrlich/goclx/internal/capability"
	"github.com/behrlich/goclx/internal/decode"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/logging"
	"github.com/behrlich/goclx/internal/native"
)

// ConstructionMode selects which platforms/devices New enumerates.
type ConstructionMode int

const (
	// BestPlatform picks the single platform whose devices sum to the
	// highest aggregate weight, ties resolved to whichever platform
	// EnumeratePlatforms listed first (spec.md §4.5).
	BestPlatform ConstructionMode = iota
	// AllPlatforms uses every device on every enumerated platform.
	AllPlatforms
	// FromPlatforms restricts enumeration to the platforms named with
	// WithPlatforms.
	FromPlatforms
	// FromDevices bypasses platform enumeration entirely and uses exactly
	// the devices named with WithDevices.
	FromDevices
)

// Observer receives executor lifecycle notifications. The zero value
// (nil) is valid; every call site nil-checks before invoking it, the same
// discipline backend.go's Device keeps around its own Observer field.
type Observer interface {
	OnDeviceSelected(index int, weight uint64)
	OnQueueCreated(index int)
}

// Option configures New. Options are applied in order; later options that
// set the same field win.
type Option func(*options)

type options struct {
	platforms   []native.Platform
	devices     []native.Device
	profiling   bool
	outOfOrder  bool
	cpuAffinity []int
	logger      *logging.Logger
	observer    Observer
}

// WithPlatforms restricts FromPlatforms construction to these platforms.
func WithPlatforms(p ...native.Platform) Option {
	return func(o *options) { o.platforms = p }
}

// WithDevices restricts FromDevices construction to these devices.
func WithDevices(d ...native.Device) Option {
	return func(o *options) { o.devices = d }
}

// WithProfiling requests that every queue be created with the profiling
// property enabled, subject to each device's capability.Profiling gate.
func WithProfiling(enabled bool) Option {
	return func(o *options) { o.profiling = enabled }
}

// WithOutOfOrder requests out-of-order queue execution where the device
// supports it.
func WithOutOfOrder(enabled bool) Option {
	return func(o *options) { o.outOfOrder = enabled }
}

// WithCPUAffinity pins each device's worker goroutine to a CPU chosen
// round-robin from cpus, exactly as internal/queue/runner.go does
// (cpuAffinity[int(queueID) % len(cpuAffinity)]). Kernel and readback
// enqueues issued by task and pipeline run on the caller's goroutine, not
// on the pinned worker.
func WithCPUAffinity(cpus []int) Option {
	return func(o *options) { o.cpuAffinity = cpus }
}

// WithLogger attaches a logger; nil is valid and produces no output.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver attaches a lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// deviceSlot is one device's full working set: its handle, the queue
// created for it, its computed weight, and the capabilities that gated
// queue creation.
type deviceSlot struct {
	device *handle.Handle
	queue  *handle.Handle
	weight uint64
	caps   capability.Capabilities
	worker *worker
}

// Executor is the live, constructed set of devices and queues for one
// context. It owns every handle it created and releases them in Close.
type Executor struct {
	api      native.API
	ctx      *handle.Handle
	devices  []deviceSlot
	logger   *logging.Logger
	observer Observer
	dec      decode.Decoder
}

// New enumerates platforms/devices per mode, creates one context spanning
// every selected device, and creates one queue per device via the
// version-gated branch (queueForDevice). On any failure it unwinds every
// handle already created, mirroring backend.go's rollback loops exactly.
func New(api native.API, mode ConstructionMode, opt ...Option) (*Executor, error) {
	var o options
	for _, fn := range opt {
		fn(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.Nop()
	}

	devices, err := selectDevices(api, mode, o)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("executor: no devices selected")
	}

	ctxPtr, err := api.CreateContext(devices)
	if err != nil {
		return nil, fmt.Errorf("executor: create context: %w", err)
	}
	ctxHandle := handle.Wrap(api, handle.KindContext, ctxPtr)

	e := &Executor{api: api, ctx: ctxHandle, logger: logger, observer: o.observer}

	for i, d := range devices {
		slot, err := newDeviceSlot(api, e.dec, ctxPtr, d, o)
		if err != nil {
			// Cleanup already created slots, then the context, exactly as
			// backend.go unwinds device.runners before deleting the device.
			for _, s := range e.devices {
				s.queue.Release()
				s.device.Release()
			}
			ctxHandle.Release()
			return nil, fmt.Errorf("executor: create device slot %d: %w", i, err)
		}
		e.devices = append(e.devices, slot)
		if o.observer != nil {
			o.observer.OnDeviceSelected(i, slot.weight)
			o.observer.OnQueueCreated(i)
		}
	}

	if len(o.cpuAffinity) > 0 {
		for i := range e.devices {
			e.devices[i].worker = newWorker(uint16(i), o.cpuAffinity, logger)
		}
	}

	return e, nil
}

// selectDevices resolves the device list per ConstructionMode.
func selectDevices(api native.API, mode ConstructionMode, o options) ([]native.Device, error) {
	switch mode {
	case FromDevices:
		if len(o.devices) == 0 {
			return nil, fmt.Errorf("executor: FromDevices requires WithDevices")
		}
		return o.devices, nil

	case FromPlatforms:
		if len(o.platforms) == 0 {
			return nil, fmt.Errorf("executor: FromPlatforms requires WithPlatforms")
		}
		return enumerateAll(api, o.platforms)

	case AllPlatforms:
		platforms, err := api.EnumeratePlatforms()
		if err != nil {
			return nil, fmt.Errorf("executor: enumerate platforms: %w", err)
		}
		return enumerateAll(api, platforms)

	case BestPlatform:
		platforms, err := api.EnumeratePlatforms()
		if err != nil {
			return nil, fmt.Errorf("executor: enumerate platforms: %w", err)
		}
		return bestPlatformDevices(api, platforms)

	default:
		return nil, fmt.Errorf("executor: unknown ConstructionMode %d", mode)
	}
}

func enumerateAll(api native.API, platforms []native.Platform) ([]native.Device, error) {
	var all []native.Device
	for _, p := range platforms {
		devices, err := api.EnumerateDevices(p)
		if err != nil {
			return nil, fmt.Errorf("executor: enumerate devices: %w", err)
		}
		all = append(all, devices...)
	}
	return all, nil
}

// bestPlatformDevices picks the platform whose devices sum to the highest
// aggregate weight, ties resolved to the first enumerated (spec.md §4.5).
func bestPlatformDevices(api native.API, platforms []native.Platform) ([]native.Device, error) {
	if len(platforms) == 0 {
		return nil, fmt.Errorf("executor: no platforms available")
	}

	var dec decode.Decoder
	var bestDevices []native.Device
	var bestWeight uint64
	haveBest := false

	for _, p := range platforms {
		devices, err := api.EnumerateDevices(p)
		if err != nil {
			return nil, fmt.Errorf("executor: enumerate devices: %w", err)
		}
		var total uint64
		for _, d := range devices {
			w, err := deviceWeight(api, dec, d)
			if err != nil {
				return nil, err
			}
			total += w
		}
		if !haveBest || total > bestWeight {
			bestWeight = total
			bestDevices = devices
			haveBest = true
		}
	}
	return bestDevices, nil
}

func deviceWeight(api native.API, dec decode.Decoder, d native.Device) (uint64, error) {
	cuBuf, err := api.DeviceInfo(d, native.InfoDeviceMaxComputeUnits)
	if err != nil {
		return 0, fmt.Errorf("executor: device compute units: %w", err)
	}
	cu, err := dec.Uint32(cuBuf)
	if err != nil {
		return 0, err
	}
	clockBuf, err := api.DeviceInfo(d, native.InfoDeviceMaxClockFrequency)
	if err != nil {
		return 0, fmt.Errorf("executor: device clock: %w", err)
	}
	clock, err := dec.Uint32(clockBuf)
	if err != nil {
		return 0, err
	}
	memBuf, err := api.DeviceInfo(d, native.InfoDeviceGlobalMemSize)
	if err != nil {
		return 0, fmt.Errorf("executor: device global mem: %w", err)
	}
	memBytes, err := dec.Uint64(memBuf)
	if err != nil {
		return 0, err
	}
	memMiB := memBytes / (1024 * 1024)

	return Weight(cu, clock, memMiB), nil
}

func deviceCapabilities(api native.API, dec decode.Decoder, d native.Device) (capability.Capabilities, error) {
	raw := map[native.InfoKey][]byte{}
	keys := []native.InfoKey{
		native.InfoDeviceVersion,
		native.InfoDeviceSVMCapabilities,
		native.InfoDevicePipeSupport,
		native.InfoDeviceNonUniformWorkGroupSupport,
		native.InfoDeviceProfilingTimerResolution,
	}
	for _, k := range keys {
		buf, err := api.DeviceInfo(d, k)
		if err != nil {
			return capability.Capabilities{}, fmt.Errorf("executor: device info %v: %w", k, err)
		}
		raw[k] = buf
	}
	return capability.FromDeviceInfo(raw, dec)
}

// queueForDevice creates a queue using the property-list path when the
// device's capability.Version is at least 2.0, and the legacy path
// otherwise -- the version-gated branch spec.md §4.5 and §5.6 call out as
// a pure decision, unit-tested independently of native.API via
// usePropertiesPath.
func queueForDevice(api native.API, ctx native.Context, d native.Device, caps capability.Capabilities, o options) (native.Queue, error) {
	profiling := o.profiling && caps.Profiling
	if usePropertiesPath(caps) {
		return api.CreateQueueWithProperties(ctx, d, profiling, o.outOfOrder)
	}
	return api.CreateQueueLegacy(ctx, d, profiling)
}

// usePropertiesPath is the pure, independently-testable half of
// queueForDevice: true once a device's reported version reaches the
// property-list queue-creation API (OpenCL 2.0).
func usePropertiesPath(caps capability.Capabilities) bool {
	return caps.Version.AtLeast(capability.V2_0)
}

func newDeviceSlot(api native.API, dec decode.Decoder, ctx native.Context, d native.Device, o options) (deviceSlot, error) {
	caps, err := deviceCapabilities(api, dec, d)
	if err != nil {
		return deviceSlot{}, err
	}
	weight, err := deviceWeight(api, dec, d)
	if err != nil {
		return deviceSlot{}, err
	}
	q, err := queueForDevice(api, ctx, d, caps, o)
	if err != nil {
		return deviceSlot{}, fmt.Errorf("create queue: %w", err)
	}
	return deviceSlot{
		device: handle.Wrap(api, handle.KindDevice, d),
		queue:  handle.Wrap(api, handle.KindQueue, q),
		weight: weight,
		caps:   caps,
	}, nil
}

// Weight returns device i's computed capacity weight.
func (e *Executor) Weight(i int) uint64 { return e.devices[i].weight }

// Weights returns every device's computed weight, in enumeration order --
// the slice internal/partition.Partition consumes directly.
func (e *Executor) Weights() []uint64 {
	out := make([]uint64, len(e.devices))
	for i, s := range e.devices {
		out[i] = s.weight
	}
	return out
}

// Queues returns every device's queue handle, in enumeration order.
func (e *Executor) Queues() []*handle.Handle {
	out := make([]*handle.Handle, len(e.devices))
	for i, s := range e.devices {
		out[i] = s.queue
	}
	return out
}

// Devices returns every selected device handle, in enumeration order.
func (e *Executor) Devices() []*handle.Handle {
	out := make([]*handle.Handle, len(e.devices))
	for i, s := range e.devices {
		out[i] = s.device
	}
	return out
}

// Capabilities returns device i's decoded capability set.
func (e *Executor) Capabilities(i int) capability.Capabilities { return e.devices[i].caps }

// Context returns the shared context handle spanning every selected
// device.
func (e *Executor) Context() *handle.Handle { return e.ctx }

// API exposes the underlying native.API for packages (task, pipeline)
// that submit kernel launches directly rather than through one of
// Executor's resource-creation facade methods.
func (e *Executor) API() native.API { return e.api }

// CreateBuffer creates a buffer in the executor's context.
func (e *Executor) CreateBuffer(flags native.MemFlags, size int) (*handle.Handle, error) {
	b, err := e.api.CreateBuffer(e.ctx.Pointer(), flags, size)
	if err != nil {
		return nil, fmt.Errorf("executor: create buffer: %w", err)
	}
	return handle.Wrap(e.api, handle.KindBuffer, b), nil
}

// CreateImage creates an image in the executor's context.
func (e *Executor) CreateImage(flags native.MemFlags, desc native.ImageDescriptor) (*handle.Handle, error) {
	img, err := e.api.CreateImage(e.ctx.Pointer(), flags, desc)
	if err != nil {
		return nil, fmt.Errorf("executor: create image: %w", err)
	}
	return handle.Wrap(e.api, handle.KindImage, img), nil
}

// CreateSharedRegion allocates a fine-grained SVM-style shared region.
func (e *Executor) CreateSharedRegion(size int) (*handle.Handle, error) {
	r, err := e.api.CreateSharedRegion(e.ctx.Pointer(), size)
	if err != nil {
		return nil, fmt.Errorf("executor: create shared region: %w", err)
	}
	return handle.Wrap(e.api, handle.KindSharedRegion, r), nil
}

// MapSharedRegion maps a shared region for host access via queue q.
func (e *Executor) MapSharedRegion(q *handle.Handle, r *handle.Handle) (unsafe.Pointer, error) {
	return e.api.MapSharedRegion(e.ctx.Pointer(), q.Pointer(), r.Pointer())
}

// UnmapSharedRegion unmaps a previously mapped shared region.
func (e *Executor) UnmapSharedRegion(q *handle.Handle, r *handle.Handle, ptr unsafe.Pointer) error {
	return e.api.UnmapSharedRegion(e.ctx.Pointer(), q.Pointer(), r.Pointer(), ptr)
}

// FreeSharedRegion releases a shared region back to the native allocator.
func (e *Executor) FreeSharedRegion(r *handle.Handle) error {
	return e.api.FreeSharedRegion(e.ctx.Pointer(), r.Pointer())
}

// CreatePipe creates a pipe memory object in the executor's context.
func (e *Executor) CreatePipe(packetSize, maxPackets int) (*handle.Handle, error) {
	p, err := e.api.CreatePipe(e.ctx.Pointer(), packetSize, maxPackets)
	if err != nil {
		return nil, fmt.Errorf("executor: create pipe: %w", err)
	}
	return handle.Wrap(e.api, handle.KindPipe, p), nil
}

// Close releases every queue, device, and the shared context, in that
// order -- the StopAndDelete analogue to New's CreateAndServe.
func (e *Executor) Close() {
	for _, w := range e.devices {
		if w.worker != nil {
			w.worker.stop()
		}
	}
	for _, s := range e.devices {
		s.queue.Release()
		s.device.Release()
	}
	e.ctx.Release()
}
