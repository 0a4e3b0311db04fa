package notifier

import (
	"context"

	"github.com/careling/booking-api/internal/model"
)

// EmailSender delivers an appointment reminder over email. A non-nil error
// means the channel did not land; the dispatcher tries other channels
// independently.
type EmailSender interface {
	SendEmail(ctx context.Context, address string, candidate *model.ReminderCandidate) error
}

// SMSSender delivers an appointment reminder over SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, number string, candidate *model.ReminderCandidate) error
}
