package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/activity"
	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/table"
)

// Service appends registrations to the master dataset.
type Service struct {
	master   *dataset.Store
	builder  *Builder
	recorder *activity.Recorder
	metrics  *metrics.FairMetrics
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithRecorder audits every accepted registration.
func WithRecorder(recorder *activity.Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithMetrics counts accepted and rejected registrations.
func WithMetrics(m *metrics.FairMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the service logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the service to the master store.
func NewService(master *dataset.Store, builder *Builder, opts ...Option) *Service {
	if builder == nil {
		builder = NewBuilder(DefaultPhoneRegion)
	}
	s := &Service{
		master:  master,
		builder: builder,
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "registration")
	return s
}

// Register validates form and appends it to the master dataset with the next
// sequence number. Sequence assignment and the write happen in one store
// transaction, so concurrent registrations never share a number. Nothing is
// written when validation fails.
func (s *Service) Register(ctx context.Context, form Form) (domain.MasterRecord, error) {
	if s.master == nil {
		return domain.MasterRecord{}, fmt.Errorf("registration service not initialized")
	}

	var created domain.MasterRecord
	start := time.Now()
	err := s.master.Update(ctx, func(current table.Table) (table.Table, error) {
		records := domain.MasterRecordsFromTable(current)
		rec, err := s.builder.Build(form, NextSequenceNumber(records), s.now())
		if err != nil {
			return table.Table{}, err
		}
		created = rec
		return domain.AppendMaster(current, rec), nil
	})
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			s.metrics.RegistrationRejected()
			return domain.MasterRecord{}, err
		}
		return domain.MasterRecord{}, fmt.Errorf("append registration: %w", err)
	}
	s.metrics.ObserveWrite("master", start)
	s.metrics.RegistrationAccepted()

	s.logger.WithFields(logrus.Fields{
		"sequence": created.Sequence,
		"dni":      created.DNI,
	}).Info("registration appended")

	s.recorder.Record(ctx, domain.NewActivityEntry(
		domain.ActivityRegistration,
		created.DNI,
		fmt.Sprintf("N° %d %s", created.Sequence, created.Name),
	))
	return created, nil
}
