package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careling/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles user lookups. Users are referenced, never owned,
	// by availability blocks and appointments.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, block *model.AvailabilityBlock) error
		// ListForProvider returns a provider's blocks ordered by start_time.
		// A non-nil window restricts the result to blocks overlapping it
		// half-open: block.start < window.End AND block.end > window.Start.
		ListForProvider(ctx context.Context, providerID uuid.UUID, window *model.TimeWindow) ([]*model.AvailabilityBlock, error)
		// Delete removes the block only when it belongs to providerID and
		// reports whether a row went away. Missing and foreign blocks are
		// indistinguishable in the result.
		Delete(ctx context.Context, blockID, providerID uuid.UUID) (bool, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// GetDetail includes the denormalized party usernames; nil when absent.
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		ListForUser(ctx context.Context, userID uuid.UUID, role model.Role, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error)
		// ApplyTransition commits the status write, the note append, the room
		// name and updated_at as one atomic unit; reports whether exactly one
		// row was modified.
		ApplyTransition(ctx context.Context, id uuid.UUID, t *model.StatusTransition) (bool, error)
		// FindOverlapping returns non-cancelled appointments of the provider
		// overlapping [start, end) half-open.
		FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
		// FindDueReminders selects confirmed appointments starting inside
		// [windowStart, windowEnd) whose last reminder is absent or older
		// than graceCutoff.
		FindDueReminders(ctx context.Context, windowStart, windowEnd, graceCutoff time.Time) ([]*model.ReminderCandidate, error)
		// MarkReminderSent stamps last_reminder_sent_at; false when the
		// appointment does not exist.
		MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	}
)
