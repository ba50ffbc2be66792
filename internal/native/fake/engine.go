// Package fake is an in-memory simulation of internal/native.API good
// enough to drive every operation spec.md names without a real GPU or ICD
// loader. It plays the role the teacher's internal/uring software ring
// (minimal.go) plays for io_uring: a complete implementation of the
// abstract interface that never touches hardware.
package fake

import (
	"encoding/binary"
	"sync"
	"time"
	"unsafe"

	"github.com/behrlich/goclx/internal/native"
)

// DeviceSpec describes one simulated device's capacity and capability
// profile. Tests construct an Engine from a handful of these to exercise
// the Executor's weighting and the Capability Model's feature gates.
type DeviceSpec struct {
	Name                            string
	Version                         string // "OpenCL 1.2", "OpenCL 2.1", ...
	ComputeUnits                    uint32
	ClockMHz                        uint32
	GlobalMemMiB                    uint64
	SVM                             bool
	Pipes                           bool
	NonUniformWorkGroups            bool
	PreferredWorkGroupSizeMultiple  uint32
}

// PlatformSpec groups devices under one simulated platform.
type PlatformSpec struct {
	Name    string
	Version string
	Devices []DeviceSpec
}

type platformObj struct {
	ptr     native.Pointer
	spec    PlatformSpec
	devices []native.Pointer
}

type deviceObj struct {
	ptr  native.Pointer
	spec DeviceSpec
}

type contextObj struct {
	ptr     native.Pointer
	devices []native.Device
}

type queueObj struct {
	ptr        native.Pointer
	context    native.Context
	device     native.Device
	profiling  bool
	outOfOrder bool
}

type bufferObj struct {
	ptr  native.Pointer
	data *shardedBytes
}

type imageObj struct {
	ptr  native.Pointer
	desc native.ImageDescriptor
	data *shardedBytes
}

type regionObj struct {
	ptr  native.Pointer
	data []float32
}

type pipeObj struct {
	ptr        native.Pointer
	packetSize int
	maxPackets int
	mu         sync.Mutex
	packets    [][]byte
}

type programObj struct {
	ptr     native.Pointer
	context native.Context
	source  string
	built   bool
	devices []native.Device
}

type kernelObj struct {
	ptr     native.Pointer
	program native.Program
	name    string
	fn      kernelFunc
	args    map[int]*boundArg
	mu      sync.Mutex
}

type eventObj struct {
	ptr       native.Pointer
	mu        sync.Mutex
	state     native.EventState
	callbacks []func(native.EventState)
	ts        native.ProfilingTimestamps
}

// Engine is the in-memory native.API implementation.
type Engine struct {
	mu sync.Mutex

	nextPtr native.Pointer

	platforms map[native.Pointer]*platformObj
	devices   map[native.Pointer]*deviceObj
	contexts  map[native.Pointer]*contextObj
	queues    map[native.Pointer]*queueObj
	buffers   map[native.Pointer]*bufferObj
	images    map[native.Pointer]*imageObj
	regions   map[native.Pointer]*regionObj
	pipes     map[native.Pointer]*pipeObj
	programs  map[native.Pointer]*programObj
	kernels   map[native.Pointer]*kernelObj
	events    map[native.Pointer]*eventObj

	refcounts map[native.Pointer]int

	platformOrder []native.Pointer
}

var _ native.API = (*Engine)(nil)

// New builds a simulated engine from a fixed list of platforms, each with
// its own device roster. Order is preserved — the Executor's
// "best-platform, ties go to the first enumerated" rule depends on it.
func New(platforms ...PlatformSpec) *Engine {
	e := &Engine{
		platforms: make(map[native.Pointer]*platformObj),
		devices:   make(map[native.Pointer]*deviceObj),
		contexts:  make(map[native.Pointer]*contextObj),
		queues:    make(map[native.Pointer]*queueObj),
		buffers:   make(map[native.Pointer]*bufferObj),
		images:    make(map[native.Pointer]*imageObj),
		regions:   make(map[native.Pointer]*regionObj),
		pipes:     make(map[native.Pointer]*pipeObj),
		programs:  make(map[native.Pointer]*programObj),
		kernels:   make(map[native.Pointer]*kernelObj),
		events:    make(map[native.Pointer]*eventObj),
		refcounts: make(map[native.Pointer]int),
	}
	for _, ps := range platforms {
		pp := e.alloc()
		po := &platformObj{ptr: pp, spec: ps}
		for _, ds := range ps.Devices {
			dp := e.alloc()
			e.devices[dp] = &deviceObj{ptr: dp, spec: ds}
			po.devices = append(po.devices, dp)
		}
		e.platforms[pp] = po
		e.platformOrder = append(e.platformOrder, pp)
	}
	return e
}

func (e *Engine) alloc() native.Pointer {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextPtr++
	return e.nextPtr
}

// --- Platforms / devices ---

func (e *Engine) EnumeratePlatforms() ([]native.Platform, error) {
	if len(e.platformOrder) == 0 {
		return nil, errNoPlatforms
	}
	out := make([]native.Platform, len(e.platformOrder))
	copy(out, e.platformOrder)
	return out, nil
}

func (e *Engine) EnumerateDevices(p native.Platform) ([]native.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	po, ok := e.platforms[p]
	if !ok {
		return nil, errUnknownPointer
	}
	out := make([]native.Device, len(po.devices))
	copy(out, po.devices)
	return out, nil
}

func (e *Engine) PlatformInfo(p native.Platform, key native.InfoKey) ([]byte, error) {
	e.mu.Lock()
	po, ok := e.platforms[p]
	e.mu.Unlock()
	if !ok {
		return nil, errUnknownPointer
	}
	switch key {
	case native.InfoDeviceName:
		return []byte(po.spec.Name), nil
	case native.InfoDeviceVersion:
		return []byte(po.spec.Version), nil
	default:
		return nil, newStatusError(native.StatusInvalidValue, "unsupported platform info key")
	}
}

func (e *Engine) DeviceInfo(d native.Device, key native.InfoKey) ([]byte, error) {
	e.mu.Lock()
	dev, ok := e.devices[d]
	e.mu.Unlock()
	if !ok {
		return nil, errUnknownPointer
	}
	s := dev.spec
	switch key {
	case native.InfoDeviceName:
		return []byte(s.Name), nil
	case native.InfoDeviceVersion:
		return []byte(s.Version), nil
	case native.InfoDeviceMaxComputeUnits:
		return encodeUint32(s.ComputeUnits), nil
	case native.InfoDeviceMaxClockFrequency:
		return encodeUint32(s.ClockMHz), nil
	case native.InfoDeviceGlobalMemSize:
		return encodeUint64(s.GlobalMemMiB << 20), nil
	case native.InfoDeviceSVMCapabilities:
		return encodeBool(s.SVM), nil
	case native.InfoDevicePipeSupport:
		return encodeBool(s.Pipes), nil
	case native.InfoDeviceNonUniformWorkGroupSupport:
		return encodeBool(s.NonUniformWorkGroups), nil
	case native.InfoDeviceProfilingTimerResolution:
		return encodeUint64(1), nil
	case native.InfoDevicePreferredWorkGroupSizeMultiple:
		return encodeUint32(s.PreferredWorkGroupSizeMultiple), nil
	case native.InfoDeviceExtensions:
		return []byte(""), nil
	default:
		return nil, newStatusError(native.StatusInvalidValue, "unsupported device info key")
	}
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func encodeBool(v bool) []byte {
	if v {
		return encodeUint32(1)
	}
	return encodeUint32(0)
}

// --- Context / queues ---

func (e *Engine) CreateContext(devices []native.Device) (native.Context, error) {
	if len(devices) == 0 {
		return 0, newStatusError(native.StatusInvalidValue, "context requires at least one device")
	}
	ptr := e.alloc()
	e.mu.Lock()
	e.contexts[ptr] = &contextObj{ptr: ptr, devices: append([]native.Device{}, devices...)}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

func (e *Engine) CreateQueueWithProperties(ctx native.Context, d native.Device, profiling, outOfOrder bool) (native.Queue, error) {
	return e.createQueue(ctx, d, profiling, outOfOrder)
}

func (e *Engine) CreateQueueLegacy(ctx native.Context, d native.Device, profiling bool) (native.Queue, error) {
	return e.createQueue(ctx, d, profiling, false)
}

func (e *Engine) createQueue(ctx native.Context, d native.Device, profiling, outOfOrder bool) (native.Queue, error) {
	e.mu.Lock()
	_, ok := e.contexts[ctx]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	ptr := e.alloc()
	e.mu.Lock()
	e.queues[ptr] = &queueObj{ptr: ptr, context: ctx, device: d, profiling: profiling, outOfOrder: outOfOrder}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

// --- Memory objects ---

func (e *Engine) CreateBuffer(ctx native.Context, flags native.MemFlags, size int) (native.Buffer, error) {
	ptr := e.alloc()
	e.mu.Lock()
	e.buffers[ptr] = &bufferObj{ptr: ptr, data: newShardedBytes(size)}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

// WriteBuffer seeds a buffer's contents directly from the host, standing
// in for the MemCopyHostPtr-at-creation path a real ICD would use. It is
// a package-external test seam, not part of native.API: callers outside
// the fake engine have no other way to put data into a buffer before a
// kernel runs, since EnqueueNDRange is the only write path EnqueueNDRange
// itself exercises.
func (e *Engine) WriteBuffer(buf native.Buffer, data []byte) error {
	e.mu.Lock()
	b, ok := e.buffers[buf]
	e.mu.Unlock()
	if !ok {
		return errUnknownPointer
	}
	b.data.WriteAt(data, 0)
	return nil
}

// ReadBuffer is WriteBuffer's read counterpart, useful in tests that want
// to assert on device memory without going through EnqueueReadBuffer.
func (e *Engine) ReadBuffer(buf native.Buffer, dst []byte) error {
	e.mu.Lock()
	b, ok := e.buffers[buf]
	e.mu.Unlock()
	if !ok {
		return errUnknownPointer
	}
	b.data.ReadAt(dst, 0)
	return nil
}

// WriteImage is WriteBuffer's image counterpart: the only way to seed an
// image's contents from the host before a kernel or readback touches it.
func (e *Engine) WriteImage(img native.Image, data []byte) error {
	e.mu.Lock()
	im, ok := e.images[img]
	e.mu.Unlock()
	if !ok {
		return errUnknownPointer
	}
	im.data.WriteAt(data, 0)
	return nil
}

func (e *Engine) CreateImage(ctx native.Context, flags native.MemFlags, desc native.ImageDescriptor) (native.Image, error) {
	depth := desc.Depth
	if depth < 1 {
		depth = 1
	}
	size := desc.Width * desc.Height * depth * 4
	ptr := e.alloc()
	e.mu.Lock()
	e.images[ptr] = &imageObj{ptr: ptr, desc: desc, data: newShardedBytes(size)}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

func (e *Engine) CreateSharedRegion(ctx native.Context, size int) (native.SharedRegion, error) {
	ptr := e.alloc()
	e.mu.Lock()
	e.regions[ptr] = &regionObj{ptr: ptr, data: make([]float32, size/4)}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

func (e *Engine) MapSharedRegion(ctx native.Context, q native.Queue, r native.SharedRegion) (unsafe.Pointer, error) {
	e.mu.Lock()
	region, ok := e.regions[r]
	e.mu.Unlock()
	if !ok {
		return nil, errUnknownPointer
	}
	if len(region.data) == 0 {
		return nil, nil
	}
	return unsafe.Pointer(&region.data[0]), nil
}

func (e *Engine) UnmapSharedRegion(ctx native.Context, q native.Queue, r native.SharedRegion, ptr unsafe.Pointer) error {
	e.mu.Lock()
	_, ok := e.regions[r]
	e.mu.Unlock()
	if !ok {
		return errUnknownPointer
	}
	return nil
}

func (e *Engine) FreeSharedRegion(ctx native.Context, r native.SharedRegion) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.regions[r]; !ok {
		return errUnknownPointer
	}
	delete(e.regions, r)
	return nil
}

func (e *Engine) CreatePipe(ctx native.Context, packetSize, maxPackets int) (native.Pipe, error) {
	ptr := e.alloc()
	e.mu.Lock()
	e.pipes[ptr] = &pipeObj{ptr: ptr, packetSize: packetSize, maxPackets: maxPackets}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

// --- Programs / kernels ---

func (e *Engine) CreateProgramWithSource(ctx native.Context, src string) (native.Program, error) {
	ptr := e.alloc()
	e.mu.Lock()
	e.programs[ptr] = &programObj{ptr: ptr, context: ctx, source: src}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

// CreateProgramWithBinary treats each binary blob as the UTF-8 kernel
// source it was built from — the fake engine's "binary" artifact format,
// since real device-binary bytes are opaque and spec.md §4.6 only requires
// that the round trip be functionally equivalent.
func (e *Engine) CreateProgramWithBinary(ctx native.Context, devices []native.Device, binaries [][]byte) (native.Program, error) {
	if len(binaries) == 0 || len(binaries[0]) == 0 {
		return 0, newStatusError(native.StatusInvalidBinary, "empty binary")
	}
	ptr := e.alloc()
	e.mu.Lock()
	e.programs[ptr] = &programObj{ptr: ptr, context: ctx, source: string(binaries[0])}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

func (e *Engine) BuildProgram(p native.Program, devices []native.Device, options string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	prog, ok := e.programs[p]
	if !ok {
		return errUnknownPointer
	}
	prog.built = true
	prog.devices = append([]native.Device{}, devices...)
	return nil
}

func (e *Engine) ProgramBinarySizes(p native.Program, devices []native.Device) ([]int, error) {
	e.mu.Lock()
	prog, ok := e.programs[p]
	e.mu.Unlock()
	if !ok {
		return nil, errUnknownPointer
	}
	sizes := make([]int, len(devices))
	for i := range sizes {
		sizes[i] = len(prog.source)
	}
	return sizes, nil
}

func (e *Engine) ProgramBinaries(p native.Program, devices []native.Device, sizes []int) ([][]byte, error) {
	e.mu.Lock()
	prog, ok := e.programs[p]
	e.mu.Unlock()
	if !ok {
		return nil, errUnknownPointer
	}
	out := make([][]byte, len(devices))
	for i := range out {
		out[i] = []byte(prog.source)
	}
	return out, nil
}

func (e *Engine) BuildLog(p native.Program, d native.Device) (string, error) {
	e.mu.Lock()
	_, ok := e.programs[p]
	e.mu.Unlock()
	if !ok {
		return "", errUnknownPointer
	}
	return "", nil
}

func (e *Engine) CreateKernel(p native.Program, name string) (native.Kernel, error) {
	e.mu.Lock()
	prog, ok := e.programs[p]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	if !prog.built {
		return 0, errProgramNotBuilt
	}
	fn, ok := kernelRegistry[name]
	if !ok {
		return 0, errInvalidKernelName
	}
	ptr := e.alloc()
	e.mu.Lock()
	e.kernels[ptr] = &kernelObj{ptr: ptr, program: p, name: name, fn: fn, args: make(map[int]*boundArg)}
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ptr, nil
}

func (e *Engine) SetKernelArg(k native.Kernel, index int, size int, value unsafe.Pointer) error {
	e.mu.Lock()
	kern, ok := e.kernels[k]
	e.mu.Unlock()
	if !ok {
		return errUnknownPointer
	}
	bytes := make([]byte, size)
	if size > 0 && value != nil {
		copy(bytes, unsafe.Slice((*byte)(value), size))
	}
	arg := &boundArg{bytes: bytes}
	if size == int(unsafe.Sizeof(native.Pointer(0))) {
		ptr := *(*native.Pointer)(value)
		e.mu.Lock()
		if b, ok := e.buffers[ptr]; ok {
			arg.buf = b
		}
		e.mu.Unlock()
	}
	kern.mu.Lock()
	kern.args[index] = arg
	kern.mu.Unlock()
	return nil
}

func (e *Engine) SetKernelArgSVM(k native.Kernel, index int, ptr unsafe.Pointer) error {
	e.mu.Lock()
	kern, ok := e.kernels[k]
	e.mu.Unlock()
	if !ok {
		return errUnknownPointer
	}
	// Recover the backing []float32 slice by scanning known regions: the
	// fake allocator hands out region.data[0]'s address from
	// MapSharedRegion, so matching pointers identifies which region this
	// argument refers to.
	e.mu.Lock()
	var svm []float32
	for _, r := range e.regions {
		if len(r.data) > 0 && unsafe.Pointer(&r.data[0]) == ptr {
			svm = r.data
			break
		}
	}
	e.mu.Unlock()
	kern.mu.Lock()
	kern.args[index] = &boundArg{svm: svm}
	kern.mu.Unlock()
	return nil
}

func (e *Engine) PreferredWorkGroupSizeMultiple(k native.Kernel, d native.Device) (int, error) {
	e.mu.Lock()
	_, ok := e.kernels[k]
	dev, devOK := e.devices[d]
	e.mu.Unlock()
	if !ok || !devOK {
		return 0, errUnknownPointer
	}
	if dev.spec.PreferredWorkGroupSizeMultiple == 0 {
		return 1, nil
	}
	return int(dev.spec.PreferredWorkGroupSizeMultiple), nil
}

// --- Enqueue ---

func (e *Engine) newEvent() *eventObj {
	ptr := e.alloc()
	ev := &eventObj{ptr: ptr, state: native.EventQueued, ts: native.ProfilingTimestamps{Queued: time.Now().UnixNano()}}
	e.mu.Lock()
	e.events[ptr] = ev
	e.refcounts[ptr] = 1
	e.mu.Unlock()
	return ev
}

func (ev *eventObj) signal(state native.EventState) {
	ev.mu.Lock()
	ev.state = state
	now := time.Now().UnixNano()
	switch state {
	case native.EventSubmitted:
		ev.ts.Submitted = now
	case native.EventRunning:
		ev.ts.Started = now
	case native.EventComplete, native.EventFailed:
		ev.ts.Ended = now
	}
	cbs := append([]func(native.EventState){}, ev.callbacks...)
	ev.mu.Unlock()
	for _, cb := range cbs {
		cb(state)
	}
}

func (e *Engine) awaitAll(wait []native.Event) {
	for _, w := range wait {
		e.mu.Lock()
		ev, ok := e.events[w]
		e.mu.Unlock()
		if !ok {
			continue
		}
		for {
			ev.mu.Lock()
			done := ev.state.Terminal()
			ev.mu.Unlock()
			if done {
				break
			}
			time.Sleep(time.Microsecond)
		}
	}
}

func (e *Engine) EnqueueNDRange(q native.Queue, k native.Kernel, offset, global, local []int, wait []native.Event) (native.Event, error) {
	e.mu.Lock()
	kern, ok := e.kernels[k]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	ev := e.newEvent()
	ev.signal(native.EventSubmitted)
	e.awaitAll(wait)
	ev.signal(native.EventRunning)

	off0 := 0
	if len(offset) > 0 {
		off0 = offset[0]
	}
	count0 := 1
	if len(global) > 0 {
		count0 = global[0]
	}

	kern.mu.Lock()
	args := make(map[int]*boundArg, len(kern.args))
	for i, a := range kern.args {
		args[i] = a
	}
	fn := kern.fn
	kern.mu.Unlock()

	if err := fn(args, off0, count0); err != nil {
		ev.signal(native.EventFailed)
		return ev.ptr, err
	}
	ev.signal(native.EventComplete)
	return ev.ptr, nil
}

func (e *Engine) EnqueueReadBuffer(q native.Queue, b native.Buffer, dst []byte, offset int, wait []native.Event) (native.Event, error) {
	e.mu.Lock()
	buf, ok := e.buffers[b]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	ev := e.newEvent()
	ev.signal(native.EventSubmitted)
	e.awaitAll(wait)
	ev.signal(native.EventRunning)
	buf.data.ReadAt(dst, offset)
	ev.signal(native.EventComplete)
	return ev.ptr, nil
}

func (e *Engine) EnqueueReadImage(q native.Queue, img native.Image, dst []byte, region [3]int, wait []native.Event) (native.Event, error) {
	e.mu.Lock()
	im, ok := e.images[img]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	ev := e.newEvent()
	ev.signal(native.EventSubmitted)
	e.awaitAll(wait)
	ev.signal(native.EventRunning)
	im.data.ReadAt(dst, 0)
	ev.signal(native.EventComplete)
	return ev.ptr, nil
}

func (e *Engine) EnqueueWritePipe(q native.Queue, p native.Pipe, src []byte, wait []native.Event) (native.Event, error) {
	e.mu.Lock()
	pipe, ok := e.pipes[p]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	ev := e.newEvent()
	ev.signal(native.EventSubmitted)
	e.awaitAll(wait)
	ev.signal(native.EventRunning)
	pipe.mu.Lock()
	if pipe.maxPackets > 0 && len(pipe.packets) >= pipe.maxPackets {
		pipe.mu.Unlock()
		ev.signal(native.EventFailed)
		return ev.ptr, newStatusError(native.StatusMemObjectAllocationFailure, "pipe full")
	}
	packet := append([]byte{}, src...)
	pipe.packets = append(pipe.packets, packet)
	pipe.mu.Unlock()
	ev.signal(native.EventComplete)
	return ev.ptr, nil
}

func (e *Engine) EnqueueReadPipe(q native.Queue, p native.Pipe, dst []byte, wait []native.Event) (native.Event, error) {
	e.mu.Lock()
	pipe, ok := e.pipes[p]
	e.mu.Unlock()
	if !ok {
		return 0, errUnknownPointer
	}
	ev := e.newEvent()
	ev.signal(native.EventSubmitted)
	e.awaitAll(wait)
	ev.signal(native.EventRunning)
	pipe.mu.Lock()
	if len(pipe.packets) == 0 {
		pipe.mu.Unlock()
		ev.signal(native.EventFailed)
		return ev.ptr, newStatusError(native.StatusMemObjectAllocationFailure, "pipe empty")
	}
	packet := pipe.packets[0]
	pipe.packets = pipe.packets[1:]
	pipe.mu.Unlock()
	copy(dst, packet)
	ev.signal(native.EventComplete)
	return ev.ptr, nil
}

func (e *Engine) EventSetCallback(ev native.Event, cb func(native.EventState)) {
	e.mu.Lock()
	evo, ok := e.events[ev]
	e.mu.Unlock()
	if !ok {
		return
	}
	evo.mu.Lock()
	if evo.state.Terminal() {
		state := evo.state
		evo.mu.Unlock()
		cb(state)
		return
	}
	evo.callbacks = append(evo.callbacks, cb)
	evo.mu.Unlock()
}

func (e *Engine) EventProfilingInfo(ev native.Event) (native.ProfilingTimestamps, error) {
	e.mu.Lock()
	evo, ok := e.events[ev]
	e.mu.Unlock()
	if !ok {
		return native.ProfilingTimestamps{}, errUnknownPointer
	}
	evo.mu.Lock()
	defer evo.mu.Unlock()
	return evo.ts, nil
}

// --- Reference counting ---

func (e *Engine) Retain(kind native.Kind, p native.Pointer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.refcounts[p]; !ok {
		return errUnknownPointer
	}
	e.refcounts[p]++
	return nil
}

func (e *Engine) Release(kind native.Kind, p native.Pointer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.refcounts[p]
	if !ok || n <= 0 {
		return errDoubleRelease
	}
	n--
	e.refcounts[p] = n
	if n == 0 {
		switch kind {
		case native.KindBuffer:
			delete(e.buffers, p)
		case native.KindImage:
			delete(e.images, p)
		case native.KindPipe:
			delete(e.pipes, p)
		case native.KindProgram:
			delete(e.programs, p)
		case native.KindKernel:
			delete(e.kernels, p)
		case native.KindEvent:
			delete(e.events, p)
		case native.KindQueue:
			delete(e.queues, p)
		case native.KindContext:
			delete(e.contexts, p)
		}
		delete(e.refcounts, p)
	}
	return nil
}
