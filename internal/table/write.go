package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// MaxSheetNameLength is the longest sheet name Excel accepts.
const MaxSheetNameLength = 31

// Sheet is one named table inside a workbook.
type Sheet struct {
	Name  string
	Table Table
}

// WriteCSV renders t with its header row.
func WriteCSV(w io.Writer, t Table) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(t.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := csvWriter.Write(padRow(row, len(t.Headers))); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteWorkbook renders sheets, in order, into a single XLSX document.
// Every cell is written as text so identity numbers keep their leading
// zeros.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return errors.New("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	used := make(map[string]int, len(sheets))
	for i, sheet := range sheets {
		name := uniqueSheetName(SheetName(sheet.Name), used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := fillSheet(f, name, sheet.Table); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Encode renders t in the given format. XLSX output holds a single sheet.
func Encode(format Format, sheetName string, t Table) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		if err := WriteCSV(&buf, t); err != nil {
			return nil, err
		}
	case FormatXLSX:
		if err := WriteWorkbook(&buf, Sheet{Name: sheetName, Table: t}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return buf.Bytes(), nil
}

// SheetName strips the characters Excel forbids and truncates to 31 runes.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if utf8.RuneCountInString(name) > MaxSheetNameLength {
		name = string([]rune(name)[:MaxSheetNameLength])
	}
	return name
}

func uniqueSheetName(name string, used map[string]int) string {
	key := strings.ToLower(name)
	count := used[key]
	used[key] = count + 1
	if count == 0 {
		return name
	}
	suffix := fmt.Sprintf("_%d", count+1)
	runes := []rune(name)
	if len(runes)+len(suffix) > MaxSheetNameLength {
		runes = runes[:MaxSheetNameLength-len(suffix)]
	}
	return string(runes) + suffix
}

func fillSheet(f *excelize.File, sheet string, t Table) error {
	for c, header := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, header); err != nil {
			return fmt.Errorf("write header %q: %w", header, err)
		}
	}
	for r, row := range t.Rows {
		for c, value := range padRow(row, len(t.Headers)) {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
