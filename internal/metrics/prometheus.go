// ABOUTME: Prometheus-backed Recorder and /metrics handler
// ABOUTME: Registers taskboard_* collectors on a caller-owned registry

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	operations *prom.CounterVec
	duration   *prom.HistogramVec
	sizes      *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "taskboard",
			Name:      "operations_total",
			Help:      "Board operations by name and result",
		}, []string{"op", "result"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "taskboard",
			Name:      "operation_duration_seconds",
			Help:      "Duration of board operations including storage round trips",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
		sizes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "taskboard",
			Name:      "collection_size",
			Help:      "Number of records in each persisted collection at last read",
		}, []string{"collection"}),
	}
	reg.MustRegister(pr.operations, pr.duration, pr.sizes)
	return pr
}

func (p *PrometheusRecorder) IncOperation(op, result string) {
	p.operations.WithLabelValues(op, result).Inc()
}

func (p *PrometheusRecorder) ObserveOperation(op string, d time.Duration) {
	p.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetCollectionSize(collection string, n int) {
	p.sizes.WithLabelValues(collection).Set(float64(n))
}

// HTTPHandler returns an http.Handler that serves metrics from reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
