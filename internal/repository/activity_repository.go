package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/vendorfair/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository wires a repository backed by pgxpool.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Record(ctx context.Context, entry domain.ActivityEntry) error {
	if r.pool == nil {
		return fmt.Errorf("activity repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO activity_log (id, kind, dni, operator, event_day, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID,
		string(entry.Kind),
		entry.DNI,
		entry.Operator,
		eventDayParam(entry.EventDay),
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

func (r *activityRepository) List(ctx context.Context, kind domain.ActivityKind, limit int, offset int) ([]domain.ActivityEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("activity repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, kind, dni, operator, event_day, detail, created_at
		 FROM activity_log
		 WHERE $1 = '' OR kind = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(kind),
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []domain.ActivityEntry{}
	for rows.Next() {
		var (
			entry     domain.ActivityEntry
			kindText  string
			eventDay  pgtype.Date
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&kindText,
			&entry.DNI,
			&entry.Operator,
			&eventDay,
			&entry.Detail,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", scanErr)
		}

		entry.Kind = domain.ActivityKind(kindText)
		entry.EventDay = eventDayFromDate(eventDay)
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate activity: %w", rowsErr)
	}

	return entries, nil
}

// eventDayParam maps an optional event day to a DATE parameter; nil is NULL.
func eventDayParam(day *time.Time) pgtype.Date {
	if day == nil {
		return pgtype.Date{}
	}
	y, m, d := day.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func eventDayFromDate(date pgtype.Date) *time.Time {
	if !date.Valid {
		return nil
	}
	day := date.Time
	return &day
}
