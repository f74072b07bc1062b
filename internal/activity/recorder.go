// Package activity records dataset writes into the optional audit trail.
package activity

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/auth"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/repository"
)

// Recorder forwards entries to a repository. Failures are logged and
// swallowed so an audit outage never fails a dataset write.
type Recorder struct {
	repo   repository.ActivityRepository
	logger logrus.FieldLogger
}

// NewRecorder builds a recorder. A nil repo records nothing.
func NewRecorder(repo repository.ActivityRepository, logger logrus.FieldLogger) *Recorder {
	if repo == nil {
		repo = repository.NewNopActivityRepository()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{repo: repo, logger: logger.WithField("component", "activity")}
}

// Record stores entry, labelled with the request operator when it has none.
func (r *Recorder) Record(ctx context.Context, entry domain.ActivityEntry) {
	if r == nil {
		return
	}
	if entry.Operator == "" {
		entry.Operator, _ = auth.OperatorFromContext(ctx)
	}
	if err := r.repo.Record(ctx, entry); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"kind": entry.Kind,
			"dni":  entry.DNI,
		}).Warn("failed to record activity")
	}
}

// Recent lists the newest entries, optionally of a single kind.
func (r *Recorder) Recent(ctx context.Context, kind domain.ActivityKind, limit int) ([]domain.ActivityEntry, error) {
	if r == nil {
		return []domain.ActivityEntry{}, nil
	}
	return r.repo.List(ctx, kind, limit, 0)
}
