package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(verificationsTotal, activationsTotal, verifyLatencyMs, rateLimitedTotal)
}

var verificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verifications_total",
		Help: "Verification lookups by outcome (first_activation/already_activated/not_found/bad_format).",
	},
	[]string{"result"},
)

var activationsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "activations_total",
		Help: "Codes activated for the first time.",
	},
)

var verifyLatencyMs = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "verify_latency_ms",
		Help:    "Verification request latency distribution in milliseconds.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 200, 400, 800, 1600},
	},
)

var rateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "verify_rate_limited_total",
		Help: "Verification requests rejected by the per-IP rate limiter.",
	},
)

func IncVerification(result string) {
	verificationsTotal.WithLabelValues(result).Inc()
}

func IncActivation() {
	activationsTotal.Inc()
}

func ObserveVerifyLatency(ms float64) {
	verifyLatencyMs.Observe(ms)
}

func IncRateLimited() {
	rateLimitedTotal.Inc()
}
