package api

import (
	"github.com/prometheus/client_golang/prometheus"          // Metric types
	"github.com/prometheus/client_golang/prometheus/promauto" // Auto-registered metrics
)

// Agent counters exposed on /metrics
var (
	agentRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_agent_runs_total",
		Help: "Completed agent evaluation runs.",
	})
	agentCancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_agent_cancellations_total",
		Help: "Subscriptions cancelled by the agent.",
	})
)
