package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careling/booking-api/internal/model"
)

func (r *availabilityRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	query := `
		INSERT INTO provider_availability (
			id, provider_id, start_time, end_time, recurring_rule, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	block.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		block.ID,
		block.ProviderID,
		block.StartTime,
		block.EndTime,
		block.RecurringRule,
		block.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability block: %w", err)
	}
	return nil
}

func (r *availabilityRepository) ListForProvider(ctx context.Context, providerID uuid.UUID, window *model.TimeWindow) ([]*model.AvailabilityBlock, error) {
	query := `
		SELECT id, provider_id, start_time, end_time, recurring_rule, created_at
		FROM provider_availability
		WHERE provider_id = $1
	`
	args := []interface{}{providerID}

	if window != nil {
		// Half-open overlap with [window.Start, window.End)
		query += " AND start_time < $2 AND end_time > $3"
		args = append(args, window.End, window.Start)
	}

	query += " ORDER BY start_time ASC"

	var blocks []*model.AvailabilityBlock
	err := r.db.SelectContext(ctx, &blocks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability blocks: %w", err)
	}
	return blocks, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, blockID, providerID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM provider_availability
		WHERE id = $1 AND provider_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, blockID, providerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete availability block: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
