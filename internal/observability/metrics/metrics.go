package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	PaymentsRecorded     *prometheus.CounterVec
	StatusTransitions    *prometheus.CounterVec
	OrdersCreated        prometheus.Counter
	NotificationFailures prometheus.Counter
	SchedulerRuns        *prometheus.CounterVec
	ConflictRetriesSeen  prometheus.Counter
}

// New registers the engine collectors on the given registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PaymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalprecast",
			Name:      "payments_recorded_total",
			Help:      "Payments appended to the ledger, by method.",
		}, []string{"method"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalprecast",
			Name:      "order_status_transitions_total",
			Help:      "Order status transitions, by target status.",
		}, []string{"to_status"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalprecast",
			Name:      "orders_created_total",
			Help:      "Orders created.",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalprecast",
			Name:      "notification_failures_total",
			Help:      "Fire-and-forget notification dispatches that failed.",
		}),
		SchedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalprecast",
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduler job executions, by job and outcome.",
		}, []string{"job", "outcome"}),
		ConflictRetriesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalprecast",
			Name:      "write_conflicts_total",
			Help:      "Optimistic concurrency conflicts surfaced to callers.",
		}),
	}

	reg.MustRegister(
		m.PaymentsRecorded,
		m.StatusTransitions,
		m.OrdersCreated,
		m.NotificationFailures,
		m.SchedulerRuns,
		m.ConflictRetriesSeen,
	)
	return m
}
