package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityBlock is a provider-declared interval during which they can be
// booked. RecurringRule is an opaque recurrence string (e.g. an iCalendar
// RRULE); this core stores it without expanding it.
type AvailabilityBlock struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ProviderID    uuid.UUID `db:"provider_id" json:"provider_id"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
	RecurringRule *string   `db:"recurring_rule" json:"recurring_rule,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the window overlaps [start, end) under the
// half-open test: start < w.End AND end > w.Start.
func (w TimeWindow) Overlaps(start, end time.Time) bool {
	return start.Before(w.End) && end.After(w.Start)
}

type AddAvailabilityRequest struct {
	ProviderID    uuid.UUID `json:"provider_id" validate:"required"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
	RecurringRule *string   `json:"recurring_rule,omitempty" validate:"omitempty,max=255"`
}
