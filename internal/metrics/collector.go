// Package metrics records conversion and HTTP metrics for Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Outcome labels for conversions.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector holds the service's metric vectors.
type Collector struct {
	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	meshVertices       prometheus.Histogram
	meshTriangles      prometheus.Histogram
	meshSolids         prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector registers the metrics with reg under namespace.
func NewCollector(reg prometheus.Registerer, namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := promauto.With(reg)
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.conversionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Total number of file conversions",
		},
		[]string{"format", "outcome"},
	)

	c.conversionDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time to load and tessellate an uploaded file",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"format"},
	)

	c.meshVertices = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mesh_vertices",
		Help:      "Vertices per converted mesh",
		Buckets:   prometheus.ExponentialBuckets(8, 4, 10),
	})

	c.meshTriangles = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mesh_triangles",
		Help:      "Triangles per converted mesh",
		Buckets:   prometheus.ExponentialBuckets(8, 4, 10),
	})

	c.meshSolids = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mesh_solids",
		Help:      "Solids per converted file",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	c.httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	return c
}

// RecordConversion records one conversion attempt. Outcomes other than the
// Outcome* constants are counted as "unknown" to keep label values bounded.
func (c *Collector) RecordConversion(format, outcome string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	switch outcome {
	case OutcomeSuccess, OutcomeRejected, OutcomeFailed:
	default:
		c.logger.Warn("unknown conversion outcome", zap.String("outcome", outcome), zap.String("format", format))
		outcome = "unknown"
	}
	c.conversionsTotal.WithLabelValues(format, outcome).Inc()
	c.conversionDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// ConversionsTotal exposes the conversion counter, labelled by format and outcome.
func (c *Collector) ConversionsTotal() *prometheus.CounterVec {
	return c.conversionsTotal
}

// RecordMesh records the size of a successful conversion's output.
func (c *Collector) RecordMesh(solids, vertices, triangles int) {
	c.meshSolids.Observe(float64(solids))
	c.meshVertices.Observe(float64(vertices))
	c.meshTriangles.Observe(float64(triangles))
}

// RecordHTTPRequest records a served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
