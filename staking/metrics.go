package staking

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's prometheus instruments. All operations share
// one duration histogram labelled by operation name so dashboards can
// compare deposit/withdraw/claim latencies directly.
type Metrics struct {
	opDuration *prometheus.HistogramVec
	opTotal    *prometheus.CounterVec
	opFailures *prometheus.CounterVec
	rewardPaid *prometheus.CounterVec
	tvl        *prometheus.GaugeVec
}

// NewMetrics creates and registers the engine metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		opDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "staking",
				Name:      "operation_duration_seconds",
				Help:      "Duration of staking engine operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		opTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staking",
				Name:      "operations_total",
				Help:      "Completed staking engine operations.",
			},
			[]string{"op", "asset"},
		),
		opFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staking",
				Name:      "operation_failures_total",
				Help:      "Failed staking engine operations by failure kind.",
			},
			[]string{"op", "kind"},
		),
		rewardPaid: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staking",
				Name:      "reward_paid_total",
				Help:      "Total reward token units paid out per pool.",
			},
			[]string{"asset"},
		),
		tvl: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "staking",
				Name:      "total_value_locked",
				Help:      "Current total deposited balance per pool, in the asset's smallest unit.",
			},
			[]string{"asset"},
		),
	}
	reg.MustRegister(m.opDuration, m.opTotal, m.opFailures, m.rewardPaid, m.tvl)
	return m
}
