package repository

import (
	"context"

	"github.com/rpattn/vendorfair/internal/domain"
)

// ActivityRepository stores the audit trail of dataset writes.
type ActivityRepository interface {
	Record(ctx context.Context, entry domain.ActivityEntry) error
	List(ctx context.Context, kind domain.ActivityKind, limit int, offset int) ([]domain.ActivityEntry, error)
}

type nopActivityRepository struct{}

// NewNopActivityRepository is used when no database is configured.
func NewNopActivityRepository() ActivityRepository {
	return nopActivityRepository{}
}

func (nopActivityRepository) Record(context.Context, domain.ActivityEntry) error {
	return nil
}

func (nopActivityRepository) List(context.Context, domain.ActivityKind, int, int) ([]domain.ActivityEntry, error) {
	return []domain.ActivityEntry{}, nil
}
