package model

import (
	"time"

	"github.com/google/uuid"
)

// ReminderCandidate is a confirmed appointment inside a reminder window,
// denormalized with the patient's contact details so the dispatcher never
// goes back for them.
type ReminderCandidate struct {
	AppointmentID      uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID         uuid.UUID  `db:"provider_id" json:"provider_id"`
	StartTime          time.Time  `db:"start_time" json:"start_time"`
	Reason             *string    `db:"reason" json:"reason,omitempty"`
	LastReminderSentAt *time.Time `db:"last_reminder_sent_at" json:"last_reminder_sent_at,omitempty"`
	PatientUsername    string     `db:"patient_username" json:"patient_username"`
	PatientEmail       *string    `db:"patient_email" json:"patient_email,omitempty"`
	PatientPhone       *string    `db:"patient_phone" json:"patient_phone,omitempty"`
	ProviderUsername   string     `db:"provider_username" json:"provider_username"`
}

// HasContact reports whether any notification channel can reach the patient.
func (c *ReminderCandidate) HasContact() bool {
	return (c.PatientEmail != nil && *c.PatientEmail != "") ||
		(c.PatientPhone != nil && *c.PatientPhone != "")
}
