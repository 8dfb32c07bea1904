package metrics

import "github.com/prometheus/client_golang/prometheus"

// ResponsesTotal counts gateway answers by path and serving tier, the
// observability companion of the response "source" tag.
var ResponsesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tiergate",
		Name:      "responses_total",
		Help:      "Gateway responses by path and serving tier",
	},
	[]string{"path", "source"},
)

// RegisterResponseMetrics registers the response counters explicitly
// (no init side effect so tests can import freely).
func RegisterResponseMetrics() {
	prometheus.MustRegister(ResponsesTotal)
}

// ObserveResponse records which tier answered a request.
func ObserveResponse(path, src string) {
	ResponsesTotal.WithLabelValues(path, src).Inc()
}
