// Package dataset owns the durable spreadsheet files. Each Store is the only
// writer of its file inside the process: every change runs as a
// load/transform/save transaction under the store's lock and the file is
// replaced wholesale through a temp file and rename.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/table"
)

// Store is a file-backed table with a fixed default header row.
type Store struct {
	mu      sync.Mutex
	path    string
	sheet   string
	format  table.Format
	columns []string
	logger  logrus.FieldLogger
}

// Option customizes a Store.
type Option func(*Store)

// WithSheetName names the sheet written to XLSX files.
func WithSheetName(name string) Option {
	return func(s *Store) {
		if strings.TrimSpace(name) != "" {
			s.sheet = name
		}
	}
}

// WithLogger sets the logger used for file lifecycle messages.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore binds a store to path. The format follows the file extension;
// columns is the header row written when the file does not exist yet.
func NewStore(path string, columns []string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("dataset path is required")
	}
	format, err := table.FormatOf(path)
	if err != nil {
		return nil, err
	}
	store := &Store{
		path:    filepath.Clean(path),
		sheet:   "datos",
		format:  format,
		columns: append([]string(nil), columns...),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Path is the file the store owns.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current contents, creating a header-only file first when
// none exists.
func (s *Store) Load(ctx context.Context) (table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Update runs fn over the current contents and, when fn succeeds, replaces
// the file with its result. If fn fails nothing is written.
func (s *Store) Update(ctx context.Context, fn func(table.Table) (table.Table, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.save(next)
}

func (s *Store) load(ctx context.Context) (table.Table, error) {
	if err := ctx.Err(); err != nil {
		return table.Table{}, err
	}
	payload, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		empty := table.New(s.columns)
		if err := s.save(empty); err != nil {
			return table.Table{}, fmt.Errorf("create %s: %w", s.path, err)
		}
		s.logger.WithField("path", s.path).Info("created empty dataset")
		return empty, nil
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var parsed table.Table
	switch s.format {
	case table.FormatCSV:
		parsed, err = table.ParseCSV(payload)
	default:
		parsed, err = table.ParseXLSX(payload)
	}
	if errors.Is(err, table.ErrNoHeader) {
		return table.New(s.columns), nil
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return parsed, nil
}

func (s *Store) save(t table.Table) error {
	payload, err := table.Encode(s.format, s.sheet, t)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dataset directory: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("promote %s: %w", s.path, err)
	}
	cleanup = false

	s.logger.WithFields(logrus.Fields{
		"path": s.path,
		"rows": t.Len(),
	}).Debug("dataset saved")
	return nil
}
