package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	// AppointmentStatusPending is the initial status of every appointment.
	AppointmentStatusPending               AppointmentStatus = "pending_provider_confirmation"
	AppointmentStatusConfirmed             AppointmentStatus = "confirmed"
	AppointmentStatusCancelledByPatient    AppointmentStatus = "cancelled_by_patient"
	AppointmentStatusCancelledByProvider   AppointmentStatus = "cancelled_by_provider"
	AppointmentStatusCompleted             AppointmentStatus = "completed"
	AppointmentStatusRescheduledByProvider AppointmentStatus = "rescheduled_by_provider"
)

// Appointment records persist through every status for audit; nothing in this
// core deletes them.
type Appointment struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	ProviderID         uuid.UUID         `db:"provider_id" json:"provider_id"`
	StartTime          time.Time         `db:"start_time" json:"start_time"`
	EndTime            time.Time         `db:"end_time" json:"end_time"`
	Reason             *string           `db:"reason" json:"reason,omitempty"`
	Status             AppointmentStatus `db:"status" json:"status"`
	VideoRoomName      *string           `db:"video_room_name" json:"video_room_name,omitempty"`
	NotesByPatient     *string           `db:"notes_by_patient" json:"notes_by_patient,omitempty"`
	NotesByProvider    *string           `db:"notes_by_provider" json:"notes_by_provider,omitempty"`
	LastReminderSentAt *time.Time        `db:"last_reminder_sent_at" json:"last_reminder_sent_at,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail carries the usernames of both parties alongside the
// appointment for display.
type AppointmentDetail struct {
	Appointment
	PatientUsername  string `db:"patient_username" json:"patient_username"`
	ProviderUsername string `db:"provider_username" json:"provider_username"`
}

type RequestAppointmentRequest struct {
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	ProviderID     uuid.UUID `json:"provider_id" validate:"required"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required"`
	Reason         *string   `json:"reason,omitempty" validate:"omitempty,max=1000"`
	NotesByPatient *string   `json:"notes_by_patient,omitempty" validate:"omitempty,max=2000"`
}

// AppointmentFilters narrows ListAppointments. StartDate and EndDate bound
// the date component of start_time, both inclusive.
type AppointmentFilters struct {
	Status    *AppointmentStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// StatusTransition is the atomic write applied by an authorized transition.
// Note, when set, is appended to the acting role's notes column; VideoRoomName,
// when set, replaces the stored room name.
type StatusTransition struct {
	Status        AppointmentStatus
	Role          Role
	Note          *string
	VideoRoomName *string
	UpdatedAt     time.Time
}
