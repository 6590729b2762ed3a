package node

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/celer-network/go-ledger/types"
)

const metricsNamespace = "ledger_node"

// metrics are registered on a registry owned by the node so several nodes
// can live in one process.
type metrics struct {
	registry *prometheus.Registry

	batches      prometheus.Counter
	instructions *prometheus.CounterVec
	persisted    prometheus.Counter
	created      prometheus.Counter
	accounts     prometheus.Gauge
	capacity     prometheus.Gauge
	ledgerLength prometheus.Gauge
	batchSeconds prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches processed.",
		}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "instructions_total",
			Help:      "Instructions processed by kind and outcome.",
		}, []string{"kind", "outcome"}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_persisted_total",
			Help:      "Ledger records appended.",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "accounts_created_total",
			Help:      "Accounts created by transfers.",
		}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "accounts",
			Help:      "Live accounts in the account table.",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "account_table_capacity",
			Help:      "Slots in the account table.",
		}),
		ledgerLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "ledger_records",
			Help:      "Records in the ledger.",
		}),
		batchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to execute and persist a batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	m.registry.MustRegister(
		m.batches,
		m.instructions,
		m.persisted,
		m.created,
		m.accounts,
		m.capacity,
		m.ledgerLength,
		m.batchSeconds,
	)
	return m
}

func outcome(ins *types.Instruction, result *BatchResult, index int) string {
	switch ins.Kind {
	case types.InstructionKindTransfer:
		if ins.Settled() {
			return "settled"
		}
		return "dropped"
	case types.InstructionKindRangeRequest:
		if _, failed := result.RangeErrors[index]; failed {
			return "failed"
		}
	}
	return "served"
}

func (m *metrics) observeBatch(batch []*types.Instruction, result *BatchResult, started time.Time) {
	m.batches.Inc()
	m.batchSeconds.Observe(time.Since(started).Seconds())
	m.persisted.Add(float64(result.Persisted))
	m.created.Add(float64(result.Created))
	for i, ins := range batch {
		if ins != nil {
			m.instructions.WithLabelValues(ins.Kind.String(), outcome(ins, result, i)).Inc()
		}
	}
}

func (m *metrics) observeState(used int, capacity int, ledgerLength uint64) {
	m.accounts.Set(float64(used))
	m.capacity.Set(float64(capacity))
	m.ledgerLength.Set(float64(ledgerLength))
}
