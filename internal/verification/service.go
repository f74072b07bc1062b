// Package verification is the field-staff flow: find a vendor in the day view
// and save the check made at their stall.
package verification

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/activity"
	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/dayview"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/ledger"
	"github.com/rpattn/vendorfair/internal/ledgerloader"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/table"
	"github.com/rpattn/vendorfair/internal/textnorm"
)

var (
	ErrMissingIdentity = errors.New("dni is required")
	ErrInvalidEventDay = errors.New("event day is not a valid date")
	// ErrUnknownEventDay is returned when the day view has no row for the
	// identity on the requested day.
	ErrUnknownEventDay = errors.New("vendor is not registered for that event day")
)

// Service reads the master dataset and owns writes to the ledger.
type Service struct {
	master   *dataset.Store
	ledger   *dataset.Store
	recorder *activity.Recorder
	metrics  *metrics.FairMetrics
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithRecorder(recorder *activity.Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithMetrics(m *metrics.FairMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the service to the master and ledger stores.
func NewService(master, ledgerStore *dataset.Store, opts ...Option) *Service {
	s := &Service{
		master: master,
		ledger: ledgerStore,
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "verification")
	return s
}

// Candidate is a day row together with the check already saved for it.
type Candidate struct {
	Row          domain.DayRow              `json:"row"`
	Verification *domain.VerificationRecord `json:"verification,omitempty"`
}

// Input is a verification as entered at the stall.
type Input struct {
	DNI              string
	EventDay         string
	StallCode        string
	InCorrectStall   bool
	VoucherOK        bool
	Observation      string
	EvidenceFileName string
}

// SaveResult reports the stored record and whether it replaced an earlier one.
type SaveResult struct {
	Record   domain.VerificationRecord `json:"record"`
	Replaced bool                      `json:"replaced"`
}

// DayView rebuilds the day view from the current master file.
func (s *Service) DayView(ctx context.Context) ([]domain.DayRow, error) {
	master, err := s.master.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load master: %w", err)
	}
	rows, err := dayview.Normalize(master)
	if err != nil {
		var missing *table.MissingColumnError
		if errors.As(err, &missing) {
			s.metrics.SchemaFailure()
			s.logger.WithField("column", missing.Field).Error("master dataset is missing a required column")
		}
		return nil, err
	}
	s.metrics.DayViewSize(len(rows))
	return rows, nil
}

// LoadLedger decodes the current ledger file.
func (s *Service) LoadLedger(ctx context.Context) ([]domain.VerificationRecord, error) {
	raw, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load verifications: %w", err)
	}
	return ledger.FromTable(raw)
}

// Search finds day rows by identity or name and attaches their saved checks.
func (s *Service) Search(ctx context.Context, query string) ([]Candidate, error) {
	rows, err := s.DayView(ctx)
	if err != nil {
		return nil, err
	}
	matches := dayview.Search(rows, query)
	if len(matches) == 0 {
		return []Candidate{}, nil
	}

	loader := ledgerloader.FromContext(ctx)
	if loader == nil {
		loader = ledgerloader.NewLedgerLoader(s)
	}
	keys := make([]domain.VerificationKey, len(matches))
	for i, row := range matches {
		keys[i] = row.Key()
	}
	saved, err := loader.LoadMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, len(matches))
	for i, row := range matches {
		candidates[i] = Candidate{Row: row, Verification: saved[i]}
	}
	return candidates, nil
}

// Save upserts the check for (DNI, event day). The pair must exist in the
// current day view. An empty stall code falls back to the registered stall.
func (s *Service) Save(ctx context.Context, in Input) (SaveResult, error) {
	dni := domain.CanonicalID(in.DNI)
	if dni == "" {
		return SaveResult{}, ErrMissingIdentity
	}
	day, ok := textnorm.ParsePossibleDate(in.EventDay)
	if !ok {
		return SaveResult{}, fmt.Errorf("%w: %q", ErrInvalidEventDay, in.EventDay)
	}
	key := domain.NewVerificationKey(dni, day)

	rows, err := s.DayView(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	row, found := dayview.Find(rows, key)
	if !found {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrUnknownEventDay, key)
	}

	stall := strings.TrimSpace(in.StallCode)
	if stall == "" {
		stall = row.Stall
	}
	rec := domain.VerificationRecord{
		DNI:              key.DNI,
		EventDay:         key.Day,
		StallCode:        stall,
		InCorrectStall:   in.InCorrectStall,
		VoucherOK:        in.VoucherOK,
		Observation:      strings.TrimSpace(in.Observation),
		EvidenceFileName: evidenceName(in.EvidenceFileName),
	}

	var result SaveResult
	start := time.Now()
	err = s.ledger.Update(ctx, func(current table.Table) (table.Table, error) {
		next, stored, replaced, err := ledger.UpsertTable(current, rec, s.now())
		if err != nil {
			return table.Table{}, err
		}
		result = SaveResult{Record: stored, Replaced: replaced}
		return next, nil
	})
	if err != nil {
		return SaveResult{}, fmt.Errorf("save verification %s: %w", key, err)
	}
	s.metrics.ObserveWrite("ledger", start)
	s.metrics.VerificationSaved(result.Replaced)

	s.logger.WithFields(logrus.Fields{
		"dni":      key.DNI,
		"day":      textnorm.FormatDate(key.Day),
		"replaced": result.Replaced,
	}).Info("verification saved")

	s.recorder.Record(ctx, domain.NewActivityEntry(
		domain.ActivityVerification,
		key.DNI,
		fmt.Sprintf("puesto=%s correcto=%t voucher=%t", stall, rec.InCorrectStall, rec.VoucherOK),
	).WithEventDay(key.Day))
	return result, nil
}

// List returns the whole ledger in file order.
func (s *Service) List(ctx context.Context) ([]domain.VerificationRecord, error) {
	return s.LoadLedger(ctx)
}

// evidenceName keeps only the base name of an uploaded file.
func evidenceName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
