package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(syncCodesTotal, queryLogsPruned) }

var syncCodesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sync_codes_total",
		Help: "Codes processed by batch sync, by outcome (added/skipped/invalid).",
	},
	[]string{"outcome"},
)

var queryLogsPruned = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "query_logs_pruned_total",
		Help: "Audit records removed by the retention worker.",
	},
)

func AddSyncOutcome(outcome string, n int) {
	syncCodesTotal.WithLabelValues(outcome).Add(float64(n))
}

func AddQueryLogsPruned(n int64) {
	queryLogsPruned.Add(float64(n))
}
