package goclx

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("Expected 0 initial ops, got %d", snap.TotalOps)
	}

	m.RecordLaunch(1000000, true)          // 1ms, success
	m.RecordReadback(2048, 2000000, true)  // 2KB, 2ms, success
	m.RecordLaunch(500000, false)          // 0.5ms, error

	snap = m.Snapshot()

	if snap.LaunchOps != 2 {
		t.Errorf("Expected 2 launch ops, got %d", snap.LaunchOps)
	}
	if snap.ReadbackOps != 1 {
		t.Errorf("Expected 1 readback op, got %d", snap.ReadbackOps)
	}
	if snap.ReadbackBytes != 2048 {
		t.Errorf("Expected 2048 readback bytes, got %d", snap.ReadbackBytes)
	}
	if snap.LaunchErrors != 1 {
		t.Errorf("Expected 1 launch error, got %d", snap.LaunchErrors)
	}

	expectedErrorRate := float64(1) / float64(3) * 100.0
	if snap.ErrorRate < expectedErrorRate-0.1 || snap.ErrorRate > expectedErrorRate+0.1 {
		t.Errorf("Expected error rate ~%.1f%%, got %.1f%%", expectedErrorRate, snap.ErrorRate)
	}
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	m.RecordQueueDepth(20)
	m.RecordQueueDepth(15)

	snap := m.Snapshot()

	if snap.MaxQueueDepth != 20 {
		t.Errorf("Expected max queue depth 20, got %d", snap.MaxQueueDepth)
	}

	expectedAvg := float64(10+20+15) / 3.0
	if snap.AvgQueueDepth < expectedAvg-0.1 || snap.AvgQueueDepth > expectedAvg+0.1 {
		t.Errorf("Expected avg queue depth %.1f, got %.1f", expectedAvg, snap.AvgQueueDepth)
	}
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordLaunch(1000000, true)       // 1ms
	m.RecordReadback(0, 2000000, true)  // 2ms

	snap := m.Snapshot()

	expectedAvgNs := uint64(1500000) // 1.5ms in nanoseconds
	if snap.AvgLatencyNs != expectedAvgNs {
		t.Errorf("Expected avg latency %d ns, got %d ns", expectedAvgNs, snap.AvgLatencyNs)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()

	if snap.UptimeNs < 10*1000000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()

	if snap2.UptimeNs > snap.UptimeNs+2*1000000 {
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordLaunch(1000000, true)
	m.RecordReadback(2048, 2000000, true)
	m.RecordQueueDepth(10)

	snap := m.Snapshot()
	if snap.TotalOps == 0 {
		t.Error("Expected some operations before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("Expected 0 ops after reset, got %d", snap.TotalOps)
	}
	if snap.ReadbackBytes != 0 {
		t.Errorf("Expected 0 bytes after reset, got %d", snap.ReadbackBytes)
	}
	if snap.MaxQueueDepth != 0 {
		t.Errorf("Expected 0 max queue depth after reset, got %d", snap.MaxQueueDepth)
	}
}

func TestObserver(t *testing.T) {
	observer := &NoOpObserver{}
	observer.ObserveLaunch(1000000, true)
	observer.ObserveReadback(1024, 1000000, true)
	observer.ObserveBuild(1000000, true)
	observer.ObserveBarrier(1000000, true)
	observer.ObserveQueueDepth(10)

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)

	metricsObserver.ObserveLaunch(1000000, true)
	metricsObserver.ObserveReadback(2048, 2000000, true)

	snap := m.Snapshot()
	if snap.LaunchOps != 1 {
		t.Errorf("Expected 1 launch op from observer, got %d", snap.LaunchOps)
	}
	if snap.ReadbackOps != 1 {
		t.Errorf("Expected 1 readback op from observer, got %d", snap.ReadbackOps)
	}
	if snap.ReadbackBytes != 2048 {
		t.Errorf("Expected 2048 readback bytes from observer, got %d", snap.ReadbackBytes)
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()

	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())

	m.RecordLaunch(1000000, true)
	m.RecordReadback(2048, 2000000, true)

	stopTime := startTime.Add(1 * time.Second)
	m.StopTime.Store(stopTime.UnixNano())

	snap := m.Snapshot()

	if snap.LaunchIOPS < 0.9 || snap.LaunchIOPS > 1.1 {
		t.Errorf("Expected LaunchIOPS ~1.0, got %.2f", snap.LaunchIOPS)
	}
	if snap.ReadbackBW < 2000 || snap.ReadbackBW > 2100 {
		t.Errorf("Expected ReadbackBW ~2048 B/s, got %.2f", snap.ReadbackBW)
	}
}

func TestMetricsHistogramPercentiles(t *testing.T) {
	m := NewMetrics()

	for _, ns := range []uint64{500, 5_000, 50_000, 500_000, 5_000_000} {
		m.RecordLaunch(ns, true)
	}

	snap := m.Snapshot()
	if snap.LatencyP50Ns == 0 {
		t.Error("Expected a non-zero P50 latency with recorded samples")
	}
	if snap.LatencyP99Ns < snap.LatencyP50Ns {
		t.Errorf("P99 (%d) should be >= P50 (%d)", snap.LatencyP99Ns, snap.LatencyP50Ns)
	}
}
