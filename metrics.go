package goclx

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for a goclx
// Executor: kernel launches, host readbacks, program builds, and the
// barriers a Pipeline's stages impose on each other.
type Metrics struct {
	// Operation counters
	LaunchOps   atomic.Uint64 // Total kernel launches submitted
	ReadbackOps atomic.Uint64 // Total host readbacks
	BuildOps    atomic.Uint64 // Total program builds (source compile or binary load)
	BarrierOps  atomic.Uint64 // Total pipeline stage barriers crossed

	// Byte counters
	ReadbackBytes atomic.Uint64 // Total bytes read back to the host

	// Error counters
	LaunchErrors   atomic.Uint64
	ReadbackErrors atomic.Uint64
	BuildErrors    atomic.Uint64
	BarrierErrors  atomic.Uint64

	// Queue statistics
	QueueDepthTotal atomic.Uint64 // Cumulative in-flight-submission samples
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	// Performance tracking
	TotalLatencyNs atomic.Uint64 // Cumulative operation latency in nanoseconds
	OpCount        atomic.Uint64 // Total operations (for average latency calculation)

	// Latency histogram buckets (cumulative counts)
	// Each bucket[i] contains the count of operations with latency <= LatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Metrics lifecycle
	StartTime atomic.Int64 // set by NewMetrics and Reset (UnixNano)
	StopTime  atomic.Int64 // set by Stop (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordLaunch records a kernel launch's completion.
func (m *Metrics) RecordLaunch(latencyNs uint64, success bool) {
	m.LaunchOps.Add(1)
	if !success {
		m.LaunchErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordReadback records a host readback's completion.
func (m *Metrics) RecordReadback(bytes uint64, latencyNs uint64, success bool) {
	m.ReadbackOps.Add(1)
	if success {
		m.ReadbackBytes.Add(bytes)
	} else {
		m.ReadbackErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordBuild records a program build (cache hit or source compile).
func (m *Metrics) RecordBuild(latencyNs uint64, success bool) {
	m.BuildOps.Add(1)
	if !success {
		m.BuildErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordBarrier records a pipeline stage boundary.
func (m *Metrics) RecordBarrier(latencyNs uint64, success bool) {
	m.BarrierOps.Add(1)
	if !success {
		m.BarrierErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordQueueDepth records the number of in-flight submissions on a queue.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)

	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

// recordLatency records operation latency and updates the histogram.
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop records the current time as StopTime.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics.
type MetricsSnapshot struct {
	// Operations
	LaunchOps   uint64
	ReadbackOps uint64
	BuildOps    uint64
	BarrierOps  uint64

	// Bytes transferred
	ReadbackBytes uint64

	// Error counts
	LaunchErrors   uint64
	ReadbackErrors uint64
	BuildErrors    uint64
	BarrierErrors  uint64

	// Queue statistics
	AvgQueueDepth float64
	MaxQueueDepth uint32

	// Performance
	AvgLatencyNs uint64
	UptimeNs     uint64

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64

	// Computed statistics
	LaunchIOPS float64 // Kernel launches per second
	ReadbackBW float64 // Readback bytes per second
	TotalOps   uint64
	ErrorRate  float64 // Percentage of failed operations
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		LaunchOps:      m.LaunchOps.Load(),
		ReadbackOps:    m.ReadbackOps.Load(),
		BuildOps:       m.BuildOps.Load(),
		BarrierOps:     m.BarrierOps.Load(),
		ReadbackBytes:  m.ReadbackBytes.Load(),
		LaunchErrors:   m.LaunchErrors.Load(),
		ReadbackErrors: m.ReadbackErrors.Load(),
		BuildErrors:    m.BuildErrors.Load(),
		BarrierErrors:  m.BarrierErrors.Load(),
		MaxQueueDepth:  m.MaxQueueDepth.Load(),
	}

	snap.TotalOps = snap.LaunchOps + snap.ReadbackOps + snap.BuildOps + snap.BarrierOps

	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.LaunchIOPS = float64(snap.LaunchOps) / uptimeSeconds
		snap.ReadbackBW = float64(snap.ReadbackBytes) / uptimeSeconds
	}

	totalErrors := snap.LaunchErrors + snap.ReadbackErrors + snap.BuildErrors + snap.BarrierErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing).
func (m *Metrics) Reset() {
	m.LaunchOps.Store(0)
	m.ReadbackOps.Store(0)
	m.BuildOps.Store(0)
	m.BarrierOps.Store(0)
	m.ReadbackBytes.Store(0)
	m.LaunchErrors.Store(0)
	m.ReadbackErrors.Store(0)
	m.BuildErrors.Store(0)
	m.BarrierErrors.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection for executor/task/pipeline
// events. Distinct from internal/executor.Observer, which reports
// construction-time device/queue selection rather than steady-state
// operation metrics.
type Observer interface {
	// ObserveLaunch is called for each completed kernel launch.
	ObserveLaunch(latencyNs uint64, success bool)

	// ObserveReadback is called for each completed host readback.
	ObserveReadback(bytes uint64, latencyNs uint64, success bool)

	// ObserveBuild is called for each completed program build.
	ObserveBuild(latencyNs uint64, success bool)

	// ObserveBarrier is called for each pipeline stage boundary crossed.
	ObserveBarrier(latencyNs uint64, success bool)

	// ObserveQueueDepth is called periodically with a queue's current
	// number of in-flight submissions.
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveLaunch(uint64, bool)           {}
func (NoOpObserver) ObserveReadback(uint64, uint64, bool) {}
func (NoOpObserver) ObserveBuild(uint64, bool)            {}
func (NoOpObserver) ObserveBarrier(uint64, bool)          {}
func (NoOpObserver) ObserveQueueDepth(uint32)             {}

// MetricsObserver implements Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveLaunch(latencyNs uint64, success bool) {
	o.metrics.RecordLaunch(latencyNs, success)
}

func (o *MetricsObserver) ObserveReadback(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordReadback(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveBuild(latencyNs uint64, success bool) {
	o.metrics.RecordBuild(latencyNs, success)
}

func (o *MetricsObserver) ObserveBarrier(latencyNs uint64, success bool) {
	o.metrics.RecordBarrier(latencyNs, success)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

// Compile-time interface checks
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
