package goclx

import (
	"sync"

	"github.com/behrlich/goclx/internal/native"
)

// MockNative wraps a native.API (typically an internal/native/fake.Engine)
// and counts calls to the operations Executor/Task/Pipeline actually drive,
// the generalization of the teacher's MockBackend call-tracking idiom from
// a fixed four-method Backend to native.API's wider, embed-and-override
// surface.
type MockNative struct {
	native.API

	mu              sync.RWMutex
	ndRangeCalls    int
	readBufferCalls int
	readImageCalls  int
	readPipeCalls   int
	writePipeCalls  int
	buildCalls      int
	retainCalls     int
	releaseCalls    int
}

// NewMockNative wraps inner for call counting. Everything not explicitly
// overridden below passes straight through to inner.
func NewMockNative(inner native.API) *MockNative {
	return &MockNative{API: inner}
}

func (m *MockNative) EnqueueNDRange(q native.Queue, k native.Kernel, offset, global, local []int, wait []native.Event) (native.Event, error) {
	m.mu.Lock()
	m.ndRangeCalls++
	m.mu.Unlock()
	return m.API.EnqueueNDRange(q, k, offset, global, local, wait)
}

func (m *MockNative) EnqueueReadBuffer(q native.Queue, b native.Buffer, dst []byte, offset int, wait []native.Event) (native.Event, error) {
	m.mu.Lock()
	m.readBufferCalls++
	m.mu.Unlock()
	return m.API.EnqueueReadBuffer(q, b, dst, offset, wait)
}

func (m *MockNative) EnqueueReadImage(q native.Queue, img native.Image, dst []byte, region [3]int, wait []native.Event) (native.Event, error) {
	m.mu.Lock()
	m.readImageCalls++
	m.mu.Unlock()
	return m.API.EnqueueReadImage(q, img, dst, region, wait)
}

func (m *MockNative) EnqueueWritePipe(q native.Queue, p native.Pipe, src []byte, wait []native.Event) (native.Event, error) {
	m.mu.Lock()
	m.writePipeCalls++
	m.mu.Unlock()
	return m.API.EnqueueWritePipe(q, p, src, wait)
}

func (m *MockNative) EnqueueReadPipe(q native.Queue, p native.Pipe, dst []byte, wait []native.Event) (native.Event, error) {
	m.mu.Lock()
	m.readPipeCalls++
	m.mu.Unlock()
	return m.API.EnqueueReadPipe(q, p, dst, wait)
}

func (m *MockNative) BuildProgram(p native.Program, devices []native.Device, options string) error {
	m.mu.Lock()
	m.buildCalls++
	m.mu.Unlock()
	return m.API.BuildProgram(p, devices, options)
}

func (m *MockNative) Retain(kind native.Kind, p native.Pointer) error {
	m.mu.Lock()
	m.retainCalls++
	m.mu.Unlock()
	return m.API.Retain(kind, p)
}

func (m *MockNative) Release(kind native.Kind, p native.Pointer) error {
	m.mu.Lock()
	m.releaseCalls++
	m.mu.Unlock()
	return m.API.Release(kind, p)
}

// CallCounts returns how many times each tracked operation has been
// invoked through this wrapper.
func (m *MockNative) CallCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int{
		"ndrange":    m.ndRangeCalls,
		"readBuffer": m.readBufferCalls,
		"readImage":  m.readImageCalls,
		"readPipe":   m.readPipeCalls,
		"writePipe":  m.writePipeCalls,
		"build":      m.buildCalls,
		"retain":     m.retainCalls,
		"release":    m.releaseCalls,
	}
}

// Reset zeroes all call counters without touching the wrapped engine.
func (m *MockNative) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ndRangeCalls = 0
	m.readBufferCalls = 0
	m.readImageCalls = 0
	m.readPipeCalls = 0
	m.writePipeCalls = 0
	m.buildCalls = 0
	m.retainCalls = 0
	m.releaseCalls = 0
}

var _ native.API = (*MockNative)(nil)
