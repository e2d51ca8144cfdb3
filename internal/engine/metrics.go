package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instrumentation. It is ambient
// observability only: the engine writes to it but never reads it back to
// make decisions (spec.md's core contract does not depend on metrics).
type Metrics struct {
	QueueDepth     prometheus.Gauge
	RunningWorkers prometheus.Gauge
	TasksCompleted *prometheus.CounterVec
	TokensUsed     prometheus.Counter
	CostUSD        prometheus.Counter
}

// NewMetrics registers the engine's metrics on reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with other engine
// instances sharing the default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orc_engine_queue_depth",
			Help: "Current number of tasks waiting for admission",
		}),
		RunningWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orc_engine_running_workers",
			Help: "Current number of tasks executing",
		}),
		TasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orc_engine_tasks_completed_total",
			Help: "Total tasks reaching a terminal status, by status",
		}, []string{"status"}),
		TokensUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orc_engine_tokens_used_total",
			Help: "Total input+output tokens consumed across all agent executions",
		}),
		CostUSD: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orc_engine_cost_usd_total",
			Help: "Total estimated provider cost in USD across all agent executions",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.QueueDepth, m.RunningWorkers, m.TasksCompleted, m.TokensUsed, m.CostUSD)
	}
	return m
}
