// Package metrics exposes prometheus counters and gauges for the
// coordinator and recovery worker. Wiring these is optional: the
// collectors count whether or not they are registered, and are only
// exposed once a caller passes prometheus.DefaultRegisterer (or its own)
// to MustRegister, so unit tests never need a pull endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SetsBegun counts transaction sets opened via the first Register call.
	SetsBegun = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tpcgo_sets_begun_total",
		Help: "Transaction sets begun.",
	})
	// SetsCompleted counts sets that reached COMPLETE.
	SetsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tpcgo_sets_completed_total",
		Help: "Transaction sets that reached COMPLETE.",
	})
	// SetsIncomplete counts sets that reached INCOMPLETE and were handed
	// to the recovery worker.
	SetsIncomplete = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tpcgo_sets_incomplete_total",
		Help: "Transaction sets that reached INCOMPLETE.",
	})
	// MemberOutcomes counts terminal member action records by phase and
	// status, e.g. {phase="commit",status="OK"}.
	MemberOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tpcgo_member_outcomes_total",
		Help: "Terminal COMMIT/ROLLBACK outcomes per member, by phase and status.",
	}, []string{"phase", "status"})
	// RecoveryIterations counts reconcile loop passes across all workers.
	RecoveryIterations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tpcgo_recovery_iterations_total",
		Help: "Recovery reconcile loop iterations across all workers.",
	})
	// RecoveryInFlight reports how many recovery workers are currently
	// reconciling a log file.
	RecoveryInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tpcgo_recovery_in_flight",
		Help: "Recovery workers currently reconciling a log file.",
	})
)

// MustRegister registers all coordinator collectors with r. Call once at
// process startup; registering twice panics, matching prometheus's own
// MustRegister contract.
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(SetsBegun, SetsCompleted, SetsIncomplete, MemberOutcomes,
		RecoveryIterations, RecoveryInFlight)
}
