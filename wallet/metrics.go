package wallet

import "github.com/prometheus/client_golang/prometheus"

// Prometheus counters/histograms for wallet operations: one counter per
// operation outcome plus a latency histogram, registered once in init()
// against the default registry.
var (
	opsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashu_wallet_operations_total",
			Help: "Count of wallet operations by name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	opLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cashu_wallet_operation_duration_seconds",
			Help:    "Latency of wallet operations against a mint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	proofsHeld = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cashu_wallet_proofs_held",
			Help: "Number of proofs issued to the wallet by Mint and Restore; spent proofs are not subtracted.",
		},
	)
)

func init() {
	prometheus.MustRegister(opsTotal, opLatency, proofsHeld)
}

func observe(operation string, ok bool, seconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	opsTotal.WithLabelValues(operation, outcome).Inc()
	opLatency.WithLabelValues(operation).Observe(seconds)
}
