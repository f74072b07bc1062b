// Package table holds the in-memory tabular form of the spreadsheet files
// and resolves logical fields to columns through normalized headers.
package table

import (
	"fmt"
	"strings"

	"github.com/rpattn/vendorfair/internal/textnorm"
)

// Table is a header row plus data rows of text cells. Every row is padded or
// cut to the header width by the parsers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// New returns an empty table with a copy of headers.
func New(headers []string) Table {
	return Table{Headers: append([]string(nil), headers...), Rows: [][]string{}}
}

// Width is the number of columns.
func (t Table) Width() int {
	return len(t.Headers)
}

// Len is the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Clone deep-copies the table so callers can transform it freely.
func (t Table) Clone() Table {
	out := Table{
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Append adds a row, padding or cutting it to the table width.
func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, padRow(row, len(t.Headers)))
}

// Cell returns the trimmed value at row/col, or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	if col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// MissingColumnError reports a required logical field that no header
// matches after normalization.
type MissingColumnError struct {
	Field string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in headers", e.Field)
}

// HeaderIndex maps normalized header labels to column positions. It is built
// once per load; the first column wins when two headers normalize alike.
type HeaderIndex struct {
	positions map[string]int
}

// NewHeaderIndex indexes headers by their normalized form.
func NewHeaderIndex(headers []string) HeaderIndex {
	positions := make(map[string]int, len(headers))
	for idx, header := range headers {
		key := textnorm.NormalizeHeader(header)
		if key == "" {
			continue
		}
		if _, exists := positions[key]; !exists {
			positions[key] = idx
		}
	}
	return HeaderIndex{positions: positions}
}

// Lookup resolves a logical label to its column position.
func (h HeaderIndex) Lookup(label string) (int, bool) {
	idx, ok := h.positions[textnorm.NormalizeHeader(label)]
	return idx, ok
}

// Require resolves every label, failing with a *MissingColumnError on the
// first one that is absent.
func (h HeaderIndex) Require(labels ...string) (map[string]int, error) {
	resolved := make(map[string]int, len(labels))
	for _, label := range labels {
		idx, ok := h.Lookup(label)
		if !ok {
			return nil, &MissingColumnError{Field: label}
		}
		resolved[label] = idx
	}
	return resolved, nil
}

// Project re-lays rows of src onto the columns named by headers, matching
// by normalized label. Columns of src without a counterpart are dropped and
// target columns without a source are left empty.
func Project(src Table, headers []string) Table {
	index := NewHeaderIndex(src.Headers)
	sources := make([]int, len(headers))
	for i, header := range headers {
		if idx, ok := index.Lookup(header); ok {
			sources[i] = idx
		} else {
			sources[i] = -1
		}
	}

	out := New(headers)
	for r := range src.Rows {
		row := make([]string, len(headers))
		for i, from := range sources {
			if from >= 0 {
				row[i] = src.Cell(r, from)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

func filterEmptyRows(rows [][]string) [][]string {
	filtered := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(cleanRow(row)) > 0 {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
