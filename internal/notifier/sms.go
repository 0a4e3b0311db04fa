package notifier

import (
	"context"
	"fmt"

	"github.com/careling/booking-api/internal/model"
	"github.com/careling/booking-api/pkg/messaging"
)

// DefaultSMSChannel is the broker channel the SMS gateway consumes.
const DefaultSMSChannel = "sms.outbound"

type smsMessage struct {
	To            string `json:"to"`
	Body          string `json:"body"`
	AppointmentID string `json:"appointment_id"`
}

// SMSNotifier hands reminder texts to the outbound gateway over the message
// broker; the gateway owns actual delivery.
type SMSNotifier struct {
	broker  messaging.Broker
	channel string
}

func NewSMSNotifier(broker messaging.Broker, channel string) *SMSNotifier {
	if channel == "" {
		channel = DefaultSMSChannel
	}
	return &SMSNotifier{broker: broker, channel: channel}
}

func (n *SMSNotifier) SendSMS(ctx context.Context, number string, candidate *model.ReminderCandidate) error {
	reason := "check-up"
	if candidate.Reason != nil && *candidate.Reason != "" {
		reason = *candidate.Reason
	}
	if runes := []rune(reason); len(runes) > 25 {
		// Keep SMS concise.
		reason = string(runes[:22]) + "..."
	}

	msg := smsMessage{
		To: number,
		Body: fmt.Sprintf("Reminder: Your appt for %q with %s is on %s.",
			reason,
			candidate.ProviderUsername,
			candidate.StartTime.Format("Jan 2, 3:04PM"),
		),
		AppointmentID: candidate.AppointmentID.String(),
	}

	if err := n.broker.Publish(ctx, n.channel, msg); err != nil {
		return fmt.Errorf("failed to publish reminder SMS: %w", err)
	}
	return nil
}
