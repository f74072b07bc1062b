package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/dayview"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/ledger"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/table"
)

// Sheet names of the combined workbook.
const (
	SheetMaster        = "Registro"
	SheetDayView       = "Normalizado_por_dia"
	SheetVerifications = "Verificaciones"
)

// Service renders downloads from the current datasets.
type Service struct {
	master  *dataset.Store
	ledger  *dataset.Store
	metrics *metrics.FairMetrics
	logger  logrus.FieldLogger
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics counts served downloads.
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

// NewService creates an export service over the master and ledger stores.
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
	s.logger = s.logger.WithField("component", "export")
	return s
}

// WriteVerificationsCSV writes the ledger as CSV and returns the bytes written.
func (s *Service) WriteVerificationsCSV(ctx context.Context, w io.Writer) (int64, error) {
	ledgerTable, err := s.ledgerTable(ctx)
	if err != nil {
		return 0, err
	}

	counter := &countingWriter{writer: w}
	if err := table.WriteCSV(counter, ledgerTable); err != nil {
		return counter.count, fmt.Errorf("write verifications csv: %w", err)
	}
	s.metrics.ExportServed("csv")
	s.logger.WithFields(logrus.Fields{
		"rows":  ledgerTable.Len(),
		"bytes": counter.count,
	}).Info("verifications csv exported")
	return counter.count, nil
}

// WriteWorkbook writes the master dataset, its day view and the ledger as
// three sheets of one XLSX workbook. A master file that cannot be expanded
// into days fails the export with its *table.MissingColumnError.
func (s *Service) WriteWorkbook(ctx context.Context, w io.Writer) (int64, error) {
	master, err := s.master.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load master: %w", err)
	}
	days, err := dayview.Normalize(master)
	if err != nil {
		var missing *table.MissingColumnError
		if errors.As(err, &missing) {
			s.metrics.SchemaFailure()
		}
		return 0, err
	}
	ledgerTable, err := s.ledgerTable(ctx)
	if err != nil {
		return 0, err
	}

	counter := &countingWriter{writer: w}
	err = table.WriteWorkbook(counter,
		table.Sheet{Name: SheetMaster, Table: master},
		table.Sheet{Name: SheetDayView, Table: domain.DayTable(days)},
		table.Sheet{Name: SheetVerifications, Table: ledgerTable},
	)
	if err != nil {
		return counter.count, fmt.Errorf("write workbook: %w", err)
	}
	s.metrics.ExportServed("xlsx")
	s.logger.WithFields(logrus.Fields{
		"master_rows": master.Len(),
		"day_rows":    len(days),
		"ledger_rows": ledgerTable.Len(),
		"bytes":       counter.count,
	}).Info("workbook exported")
	return counter.count, nil
}

// FileName stamps a download name with the current date.
func (s *Service) FileName(base, ext string) string {
	return fmt.Sprintf("%s_%s.%s", base, s.now().Format("20060102"), ext)
}

// ledgerTable lays the ledger out in the canonical columns. Hand-entered
// rows that cannot be keyed are exported as written.
func (s *Service) ledgerTable(ctx context.Context) (table.Table, error) {
	raw, err := s.ledger.Load(ctx)
	if err != nil {
		return table.Table{}, fmt.Errorf("load verifications: %w", err)
	}
	return ledger.Canonical(raw)
}

type countingWriter struct {
	writer io.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}
