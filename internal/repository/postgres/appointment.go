package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careling/booking-api/internal/model"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, provider_id, start_time, end_time,
			reason, status, notes_by_patient, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ProviderID,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Reason,
		appointment.Status,
		appointment.NotesByPatient,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, provider_id, start_time, end_time,
			   reason, status, video_room_name, notes_by_patient,
			   notes_by_provider, last_reminder_sent_at, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.patient_id, a.provider_id, a.start_time, a.end_time,
			   a.reason, a.status, a.video_room_name, a.notes_by_patient,
			   a.notes_by_provider, a.last_reminder_sent_at, a.created_at, a.updated_at,
			   pat.username AS patient_username,
			   pro.username AS provider_username
		FROM appointments a
		JOIN users pat ON a.patient_id = pat.id
		JOIN users pro ON a.provider_id = pro.id
		WHERE a.id = $1
	`
	var detail model.AppointmentDetail
	err := r.db.GetContext(ctx, &detail, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment detail: %w", err)
	}
	return &detail, nil
}

func (r *appointmentRepository) ListForUser(ctx context.Context, userID uuid.UUID, role model.Role, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.patient_id, a.provider_id, a.start_time, a.end_time,
			   a.reason, a.status, a.video_room_name, a.notes_by_patient,
			   a.notes_by_provider, a.last_reminder_sent_at, a.created_at, a.updated_at,
			   pat.username AS patient_username,
			   pro.username AS provider_username
		FROM appointments a
		JOIN users pat ON a.patient_id = pat.id
		JOIN users pro ON a.provider_id = pro.id
	`
	if role == model.RolePatient {
		query += " WHERE a.patient_id = $1"
	} else {
		query += " WHERE a.provider_id = $1"
	}
	args := []interface{}{userID}
	argCount := 2

	if filters != nil {
		if filters.Status != nil {
			query += fmt.Sprintf(" AND a.status = $%d", argCount)
			args = append(args, *filters.Status)
			argCount++
		}
		if filters.StartDate != nil {
			query += fmt.Sprintf(" AND a.start_time::date >= $%d::date", argCount)
			args = append(args, *filters.StartDate)
			argCount++
		}
		if filters.EndDate != nil {
			query += fmt.Sprintf(" AND a.start_time::date <= $%d::date", argCount)
			args = append(args, *filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY a.start_time ASC"

	var appointments []*model.AppointmentDetail
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ApplyTransition(ctx context.Context, id uuid.UUID, t *model.StatusTransition) (bool, error) {
	setClauses := []string{"status = $1", "updated_at = $2"}
	args := []interface{}{t.Status, t.UpdatedAt}
	argCount := 3

	if t.Note != nil {
		column := "notes_by_patient"
		if t.Role == model.RoleProvider {
			column = "notes_by_provider"
		}
		// Append, never overwrite, earlier notes.
		setClauses = append(setClauses, fmt.Sprintf(`%s = COALESCE(%s || E'\n', '') || $%d`, column, column, argCount))
		args = append(args, *t.Note)
		argCount++
	}

	if t.VideoRoomName != nil {
		setClauses = append(setClauses, fmt.Sprintf("video_room_name = $%d", argCount))
		args = append(args, *t.VideoRoomName)
		argCount++
	}

	query := fmt.Sprintf("UPDATE appointments SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argCount)
	args = append(args, id)

	var rows int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to apply status transition: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, provider_id, start_time, end_time,
			   reason, status, video_room_name, notes_by_patient,
			   notes_by_provider, last_reminder_sent_at, created_at, updated_at
		FROM appointments
		WHERE provider_id = $1
		AND status NOT IN ('cancelled_by_patient', 'cancelled_by_provider')
		AND start_time < $2
		AND end_time > $3
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, providerID, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindDueReminders(ctx context.Context, windowStart, windowEnd, graceCutoff time.Time) ([]*model.ReminderCandidate, error) {
	query := `
		SELECT a.id AS appointment_id,
			   a.patient_id,
			   a.provider_id,
			   a.start_time,
			   a.reason,
			   a.last_reminder_sent_at,
			   pat.username AS patient_username,
			   pat.email AS patient_email,
			   pat.phone AS patient_phone,
			   pro.username AS provider_username
		FROM appointments a
		JOIN users pat ON a.patient_id = pat.id
		JOIN users pro ON a.provider_id = pro.id
		WHERE a.status = 'confirmed'
		AND a.start_time >= $1
		AND a.start_time < $2
		AND (a.last_reminder_sent_at IS NULL OR a.last_reminder_sent_at < $3)
		ORDER BY a.start_time ASC
	`
	var candidates []*model.ReminderCandidate
	err := r.db.SelectContext(ctx, &candidates, query, windowStart, windowEnd, graceCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments needing reminders: %w", err)
	}
	return candidates, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET last_reminder_sent_at = $1, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
