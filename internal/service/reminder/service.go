package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careling/booking-api/internal/model"
	"github.com/careling/booking-api/internal/notifier"
	"github.com/careling/booking-api/pkg/clock"
	"github.com/careling/booking-api/pkg/logger"
	"github.com/careling/booking-api/pkg/metrics"
)

// Default sweep geometry: remind for appointments roughly a day out, and
// never twice within the grace period.
const (
	DefaultWindowStartHoursAhead = 23
	DefaultWindowEndHoursAhead   = 24
	DefaultGraceHours            = 2
)

// Store is the slice of persistence the dispatcher needs.
type Store interface {
	FindDueReminders(ctx context.Context, windowStart, windowEnd, graceCutoff time.Time) ([]*model.ReminderCandidate, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Options positions the sweep window relative to the current time.
type Options struct {
	WindowStartHoursAhead int
	WindowEndHoursAhead   int
	GraceHours            int
}

func DefaultOptions() Options {
	return Options{
		WindowStartHoursAhead: DefaultWindowStartHoursAhead,
		WindowEndHoursAhead:   DefaultWindowEndHoursAhead,
		GraceHours:            DefaultGraceHours,
	}
}

// SweepSummary reports what a single Dispatch run did.
type SweepSummary struct {
	Found            int
	Notified         int
	Marked           int
	MarkFailures     int
	SkippedNoContact int
}

// Service is the reminder dispatcher: a periodic idempotent-ish notification
// sweep. It is not a scheduler itself; an external trigger invokes Dispatch
// on a fixed cadence.
type Service struct {
	store   Store
	email   notifier.EmailSender
	sms     notifier.SMSSender
	clock   clock.Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
	opts    Options
}

func NewService(store Store, email notifier.EmailSender, sms notifier.SMSSender, clk clock.Clock, log *logger.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.WindowEndHoursAhead <= opts.WindowStartHoursAhead {
		// Only the window is broken; a configured grace period stands.
		opts.WindowStartHoursAhead = DefaultWindowStartHoursAhead
		opts.WindowEndHoursAhead = DefaultWindowEndHoursAhead
	}
	if opts.GraceHours <= 0 {
		opts.GraceHours = DefaultGraceHours
	}
	if m == nil {
		m = metrics.NewUnregistered("booking")
	}
	return &Service{
		store:   store,
		email:   email,
		sms:     sms,
		clock:   clk,
		logger:  log,
		metrics: m,
		opts:    opts,
	}
}

// FindDue selects confirmed appointments starting inside [windowStart,
// windowEnd) that were never reminded, or were reminded longer than grace ago.
func (s *Service) FindDue(ctx context.Context, windowStart, windowEnd time.Time, grace time.Duration) ([]*model.ReminderCandidate, error) {
	graceCutoff := s.clock.Now().Add(-grace)
	candidates, err := s.store.FindDueReminders(ctx, windowStart, windowEnd, graceCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	return candidates, nil
}

// Dispatch runs one sweep: compute the absolute window, find due
// appointments, and notify each one sequentially. A candidate is marked as
// reminded when at least one channel lands. Per-candidate failures are
// logged and counted; they never abort the rest of the sweep.
func (s *Service) Dispatch(ctx context.Context) (*SweepSummary, error) {
	started := s.clock.Now()
	windowStart := started.Add(time.Duration(s.opts.WindowStartHoursAhead) * time.Hour)
	windowEnd := started.Add(time.Duration(s.opts.WindowEndHoursAhead) * time.Hour)
	grace := time.Duration(s.opts.GraceHours) * time.Hour

	s.logger.Info("starting reminder sweep",
		"window_start", windowStart, "window_end", windowEnd, "grace_hours", s.opts.GraceHours)

	candidates, err := s.FindDue(ctx, windowStart, windowEnd, grace)
	if err != nil {
		// Connection-level failure: nothing was processed, surface it.
		return nil, err
	}

	summary := &SweepSummary{Found: len(candidates)}
	s.metrics.CandidatesFound.Add(float64(len(candidates)))

	for _, candidate := range candidates {
		s.process(ctx, candidate, summary)
	}

	s.metrics.SweepDuration.Observe(s.clock.Now().Sub(started).Seconds())
	s.logger.Info("reminder sweep finished",
		"found", summary.Found, "notified", summary.Notified, "marked", summary.Marked,
		"mark_failures", summary.MarkFailures, "skipped_no_contact", summary.SkippedNoContact)

	return summary, nil
}

func (s *Service) process(ctx context.Context, candidate *model.ReminderCandidate, summary *SweepSummary) {
	if !candidate.HasContact() {
		// Left unmarked: a later sweep with fresh contact data can still
		// catch this appointment.
		summary.SkippedNoContact++
		s.metrics.SkippedNoContact.Inc()
		s.logger.Warn("no usable contact for appointment, skipping",
			"appointment_id", candidate.AppointmentID)
		return
	}

	landed := false

	if candidate.PatientEmail != nil && *candidate.PatientEmail != "" {
		if err := s.email.SendEmail(ctx, *candidate.PatientEmail, candidate); err != nil {
			s.channelResult("email", false)
			s.logger.Error(err, "reminder email failed", "appointment_id", candidate.AppointmentID)
		} else {
			s.channelResult("email", true)
			landed = true
		}
	}

	if candidate.PatientPhone != nil && *candidate.PatientPhone != "" {
		if err := s.sms.SendSMS(ctx, *candidate.PatientPhone, candidate); err != nil {
			s.channelResult("sms", false)
			s.logger.Error(err, "reminder SMS failed", "appointment_id", candidate.AppointmentID)
		} else {
			s.channelResult("sms", true)
			landed = true
		}
	}

	if !landed {
		// Both channels failed; leave unmarked so the next sweep retries.
		return
	}
	summary.Notified++

	marked, err := s.MarkReminderSent(ctx, candidate.AppointmentID, nil)
	if err != nil {
		// Not retried within this sweep.
		summary.MarkFailures++
		s.metrics.MarkFailures.Inc()
		s.logger.Error(err, "failed to mark reminder sent", "appointment_id", candidate.AppointmentID)
		return
	}
	if !marked {
		summary.MarkFailures++
		s.metrics.MarkFailures.Inc()
		s.logger.Warn("reminder mark affected no rows", "appointment_id", candidate.AppointmentID)
		return
	}
	summary.Marked++
	s.metrics.RemindersMarked.Inc()
}

// MarkReminderSent stamps last_reminder_sent_at, defaulting the timestamp to
// the current time. False means the appointment id does not exist.
func (s *Service) MarkReminderSent(ctx context.Context, apptID uuid.UUID, at *time.Time) (bool, error) {
	ts := s.clock.Now()
	if at != nil {
		ts = *at
	}
	return s.store.MarkReminderSent(ctx, apptID, ts)
}

func (s *Service) channelResult(channel string, ok bool) {
	status := "failure"
	if ok {
		status = "success"
	}
	s.metrics.Notifications.WithLabelValues(channel, status).Inc()
}
