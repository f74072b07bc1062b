package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/activity"
	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/table"
)

// ErrUnsupportedFormat is returned when an uploaded file is not CSV or XLSX.
var ErrUnsupportedFormat = table.ErrUnsupportedFormat

// Service appends uploaded master-schema files to the master dataset.
type Service struct {
	master   *dataset.Store
	recorder *activity.Recorder
	metrics  *metrics.FairMetrics
	logger   logrus.FieldLogger
}

// NewService creates a new ingestion service. recorder and m may be nil.
func NewService(master *dataset.Store, recorder *activity.Recorder, m *metrics.FairMetrics, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		master:   master,
		recorder: recorder,
		metrics:  m,
		logger:   logger.WithField("component", "ingestion"),
	}
}

// Request describes the import input.
type Request struct {
	FileName string
	Data     io.Reader
}

// Summary reports how an upload mapped onto the master schema.
type Summary struct {
	FileName       string   `json:"fileName"`
	TotalRows      int      `json:"totalRows"`
	AppendedRows   int      `json:"appendedRows"`
	Renumbered     int      `json:"renumbered"`
	FirstSequence  int      `json:"firstSequence,omitempty"`
	LastSequence   int      `json:"lastSequence,omitempty"`
	MatchedColumns []string `json:"matchedColumns"`
	MissingColumns []string `json:"missingColumns"`
	DroppedColumns []string `json:"droppedColumns"`
}

// PreviewResult is a dry run of an import.
type PreviewResult struct {
	Summary Summary               `json:"summary"`
	Rows    []domain.MasterRecord `json:"rows"`
}

// Import appends every row of the upload to the master dataset and persists
// the result. Columns are matched by normalized header: missing master
// columns are filled with empty text and extra columns are dropped. A row
// whose sequence is empty, non-numeric or not above every sequence before it
// is given the next free number. On any error the master file is untouched.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	prepared, summary, err := prepare(req)
	if err != nil {
		s.metrics.ImportFinished(0, err)
		return summary, err
	}

	start := time.Now()
	err = s.master.Update(ctx, func(current table.Table) (table.Table, error) {
		existing := domain.MasterRecordsFromTable(current)
		highest := 0
		for _, rec := range existing {
			if rec.Sequence > highest {
				highest = rec.Sequence
			}
		}

		next := current
		for _, rec := range domain.MasterRecordsFromTable(prepared) {
			if rec.Sequence <= highest {
				rec.Sequence = highest + 1
				summary.Renumbered++
			}
			highest = rec.Sequence
			if summary.FirstSequence == 0 {
				summary.FirstSequence = rec.Sequence
			}
			summary.LastSequence = rec.Sequence
			next = domain.AppendMaster(next, rec)
			summary.AppendedRows++
		}
		return next, nil
	})
	if err != nil {
		err = fmt.Errorf("import %s: %w", req.FileName, err)
		s.metrics.ImportFinished(0, err)
		return Summary{FileName: req.FileName}, err
	}
	s.metrics.ObserveWrite("master", start)
	s.metrics.ImportFinished(summary.AppendedRows, nil)

	s.logger.WithFields(logrus.Fields{
		"file":       req.FileName,
		"rows":       summary.AppendedRows,
		"renumbered": summary.Renumbered,
		"missing":    len(summary.MissingColumns),
		"dropped":    len(summary.DroppedColumns),
	}).Info("master import appended")

	s.recorder.Record(ctx, domain.NewActivityEntry(
		domain.ActivityImport,
		"",
		fmt.Sprintf("%s: %d rows (N° %d-%d)", req.FileName, summary.AppendedRows, summary.FirstSequence, summary.LastSequence),
	))
	return summary, nil
}

// Preview parses the upload and reports how it would be imported, returning
// at most limit decoded rows. Nothing is written.
func (s *Service) Preview(ctx context.Context, req Request, limit int) (PreviewResult, error) {
	if err := ctx.Err(); err != nil {
		return PreviewResult{}, err
	}
	prepared, summary, err := prepare(req)
	if err != nil {
		return PreviewResult{Summary: summary, Rows: []domain.MasterRecord{}}, err
	}
	rows := domain.MasterRecordsFromTable(prepared)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return PreviewResult{Summary: summary, Rows: rows}, nil
}

// prepare reads, parses and projects the upload onto the master columns.
func prepare(req Request) (table.Table, Summary, error) {
	summary := Summary{
		FileName:       req.FileName,
		MatchedColumns: []string{},
		MissingColumns: []string{},
		DroppedColumns: []string{},
	}

	if strings.TrimSpace(req.FileName) == "" {
		return table.Table{}, summary, errors.New("file name is required")
	}
	if req.Data == nil {
		return table.Table{}, summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return table.Table{}, summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return table.Table{}, summary, errors.New("file is empty")
	}

	parsed, err := table.Parse(req.FileName, payload)
	if err != nil {
		return table.Table{}, summary, fmt.Errorf("import %s: %w", req.FileName, err)
	}

	uploaded := table.NewHeaderIndex(parsed.Headers)
	used := make(map[int]bool, len(parsed.Headers))
	for _, label := range domain.MasterColumns {
		if idx, ok := uploaded.Lookup(label); ok {
			summary.MatchedColumns = append(summary.MatchedColumns, label)
			used[idx] = true
			continue
		}
		summary.MissingColumns = append(summary.MissingColumns, label)
	}
	for idx, header := range parsed.Headers {
		if used[idx] {
			continue
		}
		if strings.TrimSpace(header) == "" {
			header = "column " + strconv.Itoa(idx+1)
		}
		summary.DroppedColumns = append(summary.DroppedColumns, header)
	}

	projected := table.Project(parsed, domain.MasterColumns)
	summary.TotalRows = projected.Len()
	return projected, summary, nil
}
