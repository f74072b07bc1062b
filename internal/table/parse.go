package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/vendorfair/internal/textnorm"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned when a file has no non-empty row to use as header.
	ErrNoHeader = errors.New("header row could not be detected")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	// Built-in number formats that excelize and Excel render as dates.
	dateNumFmts = map[int]struct{}{
		14: {}, 15: {}, 16: {}, 17: {}, 18: {}, 19: {}, 20: {}, 21: {}, 22: {},
		27: {}, 28: {}, 29: {}, 30: {}, 31: {}, 32: {}, 33: {}, 34: {}, 35: {}, 36: {},
		45: {}, 46: {}, 47: {}, 50: {}, 51: {}, 52: {}, 53: {}, 54: {}, 55: {}, 56: {}, 57: {}, 58: {},
	}
)

// Format identifies the on-disk encoding of a table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf derives the format from a file name extension.
func FormatOf(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Parse decodes payload according to the extension of fileName.
func Parse(fileName string, payload []byte) (Table, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return Table{}, err
	}
	switch format {
	case FormatCSV:
		return ParseCSV(payload)
	default:
		return ParseXLSX(payload)
	}
}

// ParseCSV reads a comma separated payload, tolerating a UTF-8 BOM and
// ragged rows.
func ParseCSV(payload []byte) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeRecords(records)
}

// ParseXLSX reads the first sheet of a workbook. Numeric cells styled as
// dates come back as DD/MM/YYYY text; every other cell keeps its raw value
// so identity numbers are not reformatted.
func ParseXLSX(payload []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("excel file has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	for r, row := range rows {
		for c, value := range row {
			if rendered, ok := dateCell(f, sheet, r, c, value); ok {
				rows[r][c] = rendered
			}
		}
	}
	return normalizeRecords(rows)
}

func dateCell(f *excelize.File, sheet string, row, col int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial <= 0 {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return "", false
	}
	if !isDateStyle(style) {
		return "", false
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return textnorm.FormatDate(ts), true
}

func isDateStyle(style *excelize.Style) bool {
	if _, ok := dateNumFmts[style.NumFmt]; ok {
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	custom := strings.ToLower(*style.CustomNumFmt)
	return strings.Contains(custom, "yy") || (strings.Contains(custom, "d") && strings.Contains(custom, "m"))
}

// normalizeRecords takes the first non-empty row as header and keeps every
// following non-empty row, padded to the header width.
func normalizeRecords(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, ErrNoHeader
	}

	var headerRow []string
	var dataRows [][]string
	for _, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}
	if headerRow == nil {
		return Table{}, ErrNoHeader
	}

	headers := make([]string, len(headerRow))
	for i, value := range headerRow {
		headers[i] = strings.TrimSpace(value)
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return Table{Headers: headers, Rows: filterEmptyRows(dataRows)}, nil
}
