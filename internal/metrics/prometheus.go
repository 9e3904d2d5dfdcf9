// Prometheus 메트릭 정의
// GET /metrics 로 노출 (promhttp)

package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TotalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	CollectorCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wg_collector_cycles_total",
			Help: "Collection cycles by data source (real or synthetic)",
		},
		[]string{"source"},
	)

	CollectorPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wg_collector_peers",
			Help: "Peers returned by the last collection",
		},
	)

	SnapshotWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "traffic_snapshot_write_failures_total",
			Help: "Snapshot inserts that failed and were skipped",
		},
	)

	PipelineFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_failures_total",
			Help: "Collection or detection steps that failed and degraded to an empty result",
		},
		[]string{"stage"},
	)

	AlertsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Alerts created by kind, severity and source",
		},
		[]string{"kind", "severity", "source"},
	)

	AlertNotifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_webhook_failures_total",
			Help: "Alert webhook deliveries that failed",
		},
		[]string{"reason"},
	)

	StreamObservers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_observers",
			Help: "Currently connected stream observers",
		},
	)

	StreamEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_events_published_total",
			Help: "Events accepted into the broadcast queue",
		},
		[]string{"category"},
	)

	StreamEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_events_dropped_total",
			Help: "Events dropped because the queue or an observer buffer was full",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(TotalRequests)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(CollectorCycles)
	prometheus.MustRegister(CollectorPeers)
	prometheus.MustRegister(SnapshotWriteFailures)
	prometheus.MustRegister(PipelineFailures)
	prometheus.MustRegister(AlertsCreated)
	prometheus.MustRegister(AlertNotifyFailures)
	prometheus.MustRegister(StreamObservers)
	prometheus.MustRegister(StreamEventsPublished)
	prometheus.MustRegister(StreamEventsDropped)
}

// Middleware - gin 요청 메트릭 (endpoint는 라우트 패턴 기준)
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
		TotalRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
