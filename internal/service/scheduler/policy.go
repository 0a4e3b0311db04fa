package scheduler

import (
	"github.com/google/uuid"

	"github.com/careling/booking-api/internal/model"
)

// transitionPolicy is the authorization table for status transitions: which
// statuses each role may request. Ownership is checked separately; both must
// hold for a transition to apply.
var transitionPolicy = map[model.Role]map[model.AppointmentStatus]bool{
	model.RolePatient: {
		model.AppointmentStatusCancelledByPatient: true,
	},
	model.RoleProvider: {
		model.AppointmentStatusConfirmed:             true,
		model.AppointmentStatusCancelledByProvider:   true,
		model.AppointmentStatusCompleted:             true,
		model.AppointmentStatusRescheduledByProvider: true,
	},
}

// roleAllowsStatus reports whether the role may request the status at all.
func roleAllowsStatus(role model.Role, status model.AppointmentStatus) bool {
	return transitionPolicy[role][status]
}

// authorizeTransition applies the full authorization table: the role must
// allow the requested status and the actor must own the matching side of the
// appointment.
func authorizeTransition(appt *model.Appointment, newStatus model.AppointmentStatus, actorID uuid.UUID, role model.Role) bool {
	if !roleAllowsStatus(role, newStatus) {
		return false
	}
	switch role {
	case model.RolePatient:
		return appt.PatientID == actorID
	case model.RoleProvider:
		return appt.ProviderID == actorID
	default:
		return false
	}
}
