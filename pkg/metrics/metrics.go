package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all reminder sweep metrics
type Metrics struct {
	CandidatesFound  prometheus.Counter
	RemindersMarked  prometheus.Counter
	MarkFailures     prometheus.Counter
	SkippedNoContact prometheus.Counter
	SweepDuration    prometheus.Histogram

	// Notification attempts by channel and outcome
	Notifications *prometheus.CounterVec
}

// New creates and registers all reminder metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		CandidatesFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_candidates_total",
			Help:      "Total number of appointments selected for reminding",
		}),
		RemindersMarked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_marked_total",
			Help:      "Total number of appointments marked as reminded",
		}),
		MarkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_mark_failures_total",
			Help:      "Total number of failures while marking reminders as sent",
		}),
		SkippedNoContact: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_skipped_no_contact_total",
			Help:      "Total number of appointments skipped for lack of contact details",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_sweep_duration_seconds",
			Help:      "Time spent per reminder sweep",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_notifications_total",
			Help:      "Total number of notification attempts",
		}, []string{"channel", "status"}),
	}
}

// NewUnregistered creates the same metric set without touching the default
// registry. Used by tests and anywhere a second instance would collide.
func NewUnregistered(namespace string) *Metrics {
	return &Metrics{
		CandidatesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_candidates_total",
			Help:      "Total number of appointments selected for reminding",
		}),
		RemindersMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_marked_total",
			Help:      "Total number of appointments marked as reminded",
		}),
		MarkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_mark_failures_total",
			Help:      "Total number of failures while marking reminders as sent",
		}),
		SkippedNoContact: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_skipped_no_contact_total",
			Help:      "Total number of appointments skipped for lack of contact details",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_sweep_duration_seconds",
			Help:      "Time spent per reminder sweep",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_notifications_total",
			Help:      "Total number of notification attempts",
		}, []string{"channel", "status"}),
	}
}
