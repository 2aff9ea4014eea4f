package metrics

import (
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	messages      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	height        prometheus.Gauge
	rewardBalance prometheus.Gauge
	votingPower   prometheus.Gauge
	pools         prometheus.Gauge
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the lazily registered metrics of the message executor.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = newLedgerMetrics()
		prometheus.MustRegister(
			ledgerRegistry.messages,
			ledgerRegistry.latency,
			ledgerRegistry.height,
			ledgerRegistry.rewardBalance,
			ledgerRegistry.votingPower,
			ledgerRegistry.pools,
		)
	})
	return ledgerRegistry
}

func newLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grid",
			Subsystem: "ledger",
			Name:      "messages_total",
			Help:      "Executed messages segmented by type and outcome.",
		}, []string{"type", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grid",
			Subsystem: "ledger",
			Name:      "message_duration_seconds",
			Help:      "Execution latency of messages including commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grid",
			Subsystem: "ledger",
			Name:      "height",
			Help:      "Block height of the last committed message.",
		}),
		rewardBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grid",
			Subsystem: "generator",
			Name:      "reward_balance",
			Help:      "Reward token minted to the generator and not yet paid out.",
		}),
		votingPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grid",
			Subsystem: "escrow",
			Name:      "total_voting_power",
			Help:      "Global voting power at the current period, scaled by MaxLockPeriods.",
		}),
		pools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grid",
			Subsystem: "generator",
			Name:      "pools",
			Help:      "Number of registered generator pools.",
		}),
	}
}

func (m *LedgerMetrics) ObserveMessage(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
	}
	m.messages.WithLabelValues(kind, outcome).Inc()
	m.latency.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *LedgerMetrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}

func (m *LedgerMetrics) SetRewardBalance(v *big.Int) {
	if m == nil {
		return
	}
	m.rewardBalance.Set(toFloat(v))
}

func (m *LedgerMetrics) SetTotalVotingPower(v *big.Int) {
	if m == nil {
		return
	}
	m.votingPower.Set(toFloat(v))
}

func (m *LedgerMetrics) SetPools(count int) {
	if m == nil {
		return
	}
	m.pools.Set(float64(count))
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
