package postgres

import (
	"context"
	"fmt"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// ActivityRepository persists seminar activity to the seminar_activity table.
type ActivityRepository struct {
	conn
}

func (r *ActivityRepository) Insert(ctx context.Context, ev *domain.ActivityEvent) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO seminar_activity (seminar_id, user_id, role, action, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.SeminarID, ev.UserID, string(ev.Role), string(ev.Action), ev.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListBySeminar(ctx context.Context, seminarID int64) ([]domain.ActivityEvent, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT seminar_id, user_id, role, action, occurred_at
		FROM seminar_activity
		WHERE seminar_id = $1
		ORDER BY occurred_at, id`, seminarID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	events := make([]domain.ActivityEvent, 0)
	for rows.Next() {
		var (
			ev           domain.ActivityEvent
			role, action string
		)
		if err := rows.Scan(&ev.SeminarID, &ev.UserID, &role, &action, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		ev.Role = domain.Role(role)
		ev.Action = domain.Action(action)
		ev.OccurredAt = ev.OccurredAt.UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return events, nil
}
