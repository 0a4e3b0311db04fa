package notifier

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/careling/booking-api/internal/model"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier sends reminder emails over SMTP.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	return &EmailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (n *EmailNotifier) SendEmail(_ context.Context, address string, candidate *model.ReminderCandidate) error {
	reason := "your scheduled visit"
	if candidate.Reason != nil && *candidate.Reason != "" {
		reason = *candidate.Reason
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", fmt.Sprintf("Appointment Reminder: %s", reason))
	m.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nThis is a reminder for your appointment for %q scheduled for %s with %s.\n\nIf you need to reschedule, please contact us as soon as possible.\n",
		candidate.PatientUsername,
		reason,
		candidate.StartTime.Format("January 2, 2006 at 3:04 PM"),
		candidate.ProviderUsername,
	))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}
	return nil
}
