package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careling/booking-api/internal/model"
	"github.com/careling/booking-api/internal/repository"
	"github.com/careling/booking-api/pkg/clock"
	apperrors "github.com/careling/booking-api/pkg/errors"
	"github.com/careling/booking-api/pkg/validator"
)

// Service is the appointment state machine: request, authorized status
// transitions, and read paths.
type Service struct {
	repo      repository.AppointmentRepository
	userRepo  repository.UserRepository
	clock     clock.Clock
	validator validator.Validator
}

func NewService(repo repository.AppointmentRepository, userRepo repository.UserRepository, clk clock.Clock) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		clock:     clk,
		validator: validator.New(),
	}
}

// RequestAppointment creates a pending appointment for the patient. It does
// not check provider availability or conflicting bookings; callers wanting
// that guarantee call CheckConflict (and the availability store) first.
func (s *Service) RequestAppointment(ctx context.Context, req *model.RequestAppointmentRequest) (uuid.UUID, error) {
	if err := s.validator.Validate(req); err != nil {
		return uuid.Nil, fmt.Errorf("invalid appointment request: %w", err)
	}
	if !req.EndTime.After(req.StartTime) {
		return uuid.Nil, apperrors.InvalidRange("appointment end time must be after start time")
	}

	if err := s.verifyUser(ctx, req.PatientID, "patient"); err != nil {
		return uuid.Nil, err
	}
	if err := s.verifyUser(ctx, req.ProviderID, "provider"); err != nil {
		return uuid.Nil, err
	}

	now := s.clock.Now()
	appt := &model.Appointment{
		PatientID:      req.PatientID,
		ProviderID:     req.ProviderID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
		Status:         model.AppointmentStatusPending,
		NotesByPatient: req.NotesByPatient,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return appt.ID, nil
}

// TransitionStatus applies an authorized status change. It returns false for
// a missing appointment and for a failed authorization alike, so callers
// cannot probe for existence. A provider confirming generates a fresh video
// room name every time, including re-confirmations.
func (s *Service) TransitionStatus(ctx context.Context, apptID uuid.UUID, newStatus model.AppointmentStatus, actorID uuid.UUID, role model.Role, notes *string) (bool, error) {
	if !role.Valid() {
		return false, fmt.Errorf("invalid role %q", role)
	}

	appt, err := s.repo.Get(ctx, apptID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	if appt == nil {
		return false, nil
	}

	if !authorizeTransition(appt, newStatus, actorID, role) {
		return false, nil
	}

	now := s.clock.Now()
	transition := &model.StatusTransition{
		Status:    newStatus,
		Role:      role,
		UpdatedAt: now,
	}

	if notes != nil && *notes != "" {
		tagged := fmt.Sprintf("[%s %s] %s", now.Format("2006-01-02 15:04:05"), newStatus, *notes)
		transition.Note = &tagged
	}

	if newStatus == model.AppointmentStatusConfirmed && role == model.RoleProvider {
		room := videoRoomName(apptID, now)
		transition.VideoRoomName = &room
	}

	applied, err := s.repo.ApplyTransition(ctx, apptID, transition)
	if err != nil {
		return false, fmt.Errorf("failed to apply status transition: %w", err)
	}
	return applied, nil
}

// GetAppointment returns full detail including both usernames, or nil when
// the appointment does not exist.
func (s *Service) GetAppointment(ctx context.Context, apptID uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.repo.GetDetail(ctx, apptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointments returns the user's appointments on the given side of the
// relationship, ordered by start time.
func (s *Service) ListAppointments(ctx context.Context, userID uuid.UUID, role model.Role, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	appointments, err := s.repo.ListForUser(ctx, userID, role, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// CheckConflict reports whether any non-cancelled appointment of the provider
// overlaps [start, end). It is an explicit, opt-in step: RequestAppointment
// never calls it on its own.
func (s *Service) CheckConflict(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, apperrors.InvalidRange("conflict window end must be after start")
	}
	overlapping, err := s.repo.FindOverlapping(ctx, providerID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return len(overlapping) > 0, nil
}

func (s *Service) verifyUser(ctx context.Context, id uuid.UUID, role string) error {
	exists, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", role, err)
	}
	if !exists {
		return apperrors.UnknownUser(role)
	}
	return nil
}

// videoRoomName derives a unique room name from the appointment id and a
// high-resolution timestamp.
func videoRoomName(apptID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("ApptRoom_%s_%d", apptID, now.UnixNano())
}
