package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveDuration tracks optimizer latency per algorithm.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Tour solve duration in seconds.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}},
		[]string{"algorithm"},
	)
	// RoutesComputed counts finished route computations by outcome.
	RoutesComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routes_computed_total", Help: "Route computations by outcome."},
		[]string{"outcome"},
	)
	// ContaminatedEdges observes how many edges each request's hazards blocked.
	ContaminatedEdges = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "contaminated_edges", Help: "Contaminated edges per route computation.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50}},
	)
	// HazardsActive gauges the size of the registered hazard set.
	HazardsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "hazards_active", Help: "Currently registered hazards."},
	)

	// WebhookDeliveries counts hazard webhook outcomes by event type and status.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors on the package registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(RoutesComputed)
		Registry.MustRegister(ContaminatedEdges)
		Registry.MustRegister(HazardsActive)
		Registry.MustRegister(WebhookDeliveries)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
