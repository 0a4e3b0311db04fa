package model

import (
	"time"

	"github.com/google/uuid"
)

// User is either a patient or a provider depending on which side of a
// relationship references it. Role is contextual, never stored.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Role identifies which side of an appointment an actor is on.
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleProvider
}
