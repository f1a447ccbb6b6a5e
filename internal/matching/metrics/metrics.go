package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matching module: invite/group
// lifecycle counts and critical path durations.
type Metrics struct {
	InvitesSent         prometheus.Counter
	InvitesAccepted     prometheus.Counter
	InvitesDeclined     prometheus.Counter
	GroupsCreated       prometheus.Counter
	GroupsDissolved     prometheus.Counter
	PersistenceFailures prometheus.Counter

	SendInviteDuration prometheus.Histogram
	RespondDuration    prometheus.Histogram
}

// New creates a Metrics instance with all matching module metrics registered
// on the default registry. Construct once per process; tests pass a nil
// *Metrics to the service instead.
func New() *Metrics {
	buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
	return &Metrics{
		InvitesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duomatch_invites_sent_total",
			Help: "Total number of invites successfully created",
		}),
		InvitesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duomatch_invites_accepted_total",
			Help: "Total number of invites accepted",
		}),
		InvitesDeclined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duomatch_invites_declined_total",
			Help: "Total number of invites declined",
		}),
		GroupsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duomatch_groups_created_total",
			Help: "Total number of groups created (accepted invites plus demo seeds)",
		}),
		GroupsDissolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duomatch_groups_dissolved_total",
			Help: "Total number of groups dissolved by a member leaving",
		}),
		PersistenceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "duomatch_persistence_failures_total",
			Help: "Total number of write-through persistence flushes that failed",
		}),
		SendInviteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "duomatch_send_invite_duration_seconds",
			Help:    "Duration of SendInvite operations including the persistence flush",
			Buckets: buckets,
		}),
		RespondDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "duomatch_respond_invite_duration_seconds",
			Help:    "Duration of RespondToInvite operations including the persistence flush",
			Buckets: buckets,
		}),
	}
}

// ObserveSendInvite records the duration of a SendInvite operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveSendInvite(start time.Time) {
	m.SendInviteDuration.Observe(time.Since(start).Seconds())
}

// ObserveRespond records the duration of a RespondToInvite operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveRespond(start time.Time) {
	m.RespondDuration.Observe(time.Since(start).Seconds())
}
