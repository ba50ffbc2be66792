package goclx

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver is an Observer that reports to a Prometheus registry
// instead of (or alongside) the in-process Metrics/MetricsObserver pair,
// the domain-stack alternative the teacher's own Options.Observer slot
// was designed to accept.
type PrometheusObserver struct {
	launches   *prometheus.CounterVec
	readbacks  *prometheus.CounterVec
	builds     *prometheus.CounterVec
	barriers   *prometheus.CounterVec
	readbackBy prometheus.Counter
	latency    *prometheus.HistogramVec
	queueDepth prometheus.Gauge
}

// NewPrometheusObserver creates a PrometheusObserver and registers its
// collectors against reg. Pass prometheus.NewRegistry() for an isolated
// registry, or a process-wide registry to expose via /metrics.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) *PrometheusObserver {
	o := &PrometheusObserver{
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "launches_total", Help: "Kernel launches completed, by outcome.",
		}, []string{"outcome"}),
		readbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "readbacks_total", Help: "Host readbacks completed, by outcome.",
		}, []string{"outcome"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "builds_total", Help: "Program builds completed, by outcome.",
		}, []string{"outcome"}),
		barriers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "barriers_total", Help: "Pipeline stage barriers crossed, by outcome.",
		}, []string{"outcome"}),
		readbackBy: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "readback_bytes_total", Help: "Bytes transferred back to the host.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "op_latency_seconds", Help: "Operation latency in seconds, by kind.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, numLatencyBuckets),
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "queue_depth", Help: "Most recently observed in-flight submission count.",
		}),
	}
	reg.MustRegister(o.launches, o.readbacks, o.builds, o.barriers, o.readbackBy, o.latency, o.queueDepth)
	return o
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func (o *PrometheusObserver) ObserveLaunch(latencyNs uint64, success bool) {
	o.launches.WithLabelValues(outcome(success)).Inc()
	o.latency.WithLabelValues("launch").Observe(float64(latencyNs) / 1e9)
}

func (o *PrometheusObserver) ObserveReadback(bytes uint64, latencyNs uint64, success bool) {
	o.readbacks.WithLabelValues(outcome(success)).Inc()
	if success {
		o.readbackBy.Add(float64(bytes))
	}
	o.latency.WithLabelValues("readback").Observe(float64(latencyNs) / 1e9)
}

func (o *PrometheusObserver) ObserveBuild(latencyNs uint64, success bool) {
	o.builds.WithLabelValues(outcome(success)).Inc()
	o.latency.WithLabelValues("build").Observe(float64(latencyNs) / 1e9)
}

func (o *PrometheusObserver) ObserveBarrier(latencyNs uint64, success bool) {
	o.barriers.WithLabelValues(outcome(success)).Inc()
	o.latency.WithLabelValues("barrier").Observe(float64(latencyNs) / 1e9)
}

func (o *PrometheusObserver) ObserveQueueDepth(depth uint32) {
	o.queueDepth.Set(float64(depth))
}

var _ Observer = (*PrometheusObserver)(nil)
