// Package metrics holds the Prometheus collectors of roomkit: HTTP shell
// middleware and thread sync counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkit_http_requests_total",
			Help: "Total number of preview shell requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomkit_http_request_duration_seconds",
			Help:    "Preview shell request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// SyncPasses counts thread sync passes by mode (load, sync) and
	// result (ok, error, shared).
	SyncPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkit_thread_sync_passes_total",
			Help: "Thread sync passes by mode and result",
		},
		[]string{"mode", "result"},
	)

	// SyncOps counts batch ops written by sync passes.
	SyncOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkit_thread_sync_ops_total",
			Help: "Thread store batch ops applied by sync passes",
		},
		[]string{"op"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomkit_thread_sync_duration_seconds",
			Help:    "Duration of a thread sync pass including the remote fetch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency labeled with the chi route
// pattern. Requests that match no route share one label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// raw paths would make the label unbounded
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
