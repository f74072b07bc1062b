// Package dayview expands the master dataset into one row per vendor and
// event day, the view field staff verify against.
package dayview

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/eventdays"
	"github.com/rpattn/vendorfair/internal/table"
	"github.com/rpattn/vendorfair/internal/textnorm"
)

// RequiredColumns are the master columns the view cannot be built without.
var RequiredColumns = []string{
	domain.ColDNI,
	domain.ColName,
	domain.ColCategory,
	domain.ColReceipt,
	domain.ColPayment,
	domain.ColDocument,
	domain.ColEntryDate,
	domain.ColEventDates,
	domain.ColStall,
}

// Normalize builds the day view of master. A missing required column fails
// the whole pass with a *table.MissingColumnError and no rows. Records whose
// event-date text holds no parseable date contribute nothing.
func Normalize(master table.Table) ([]domain.DayRow, error) {
	cols, err := table.NewHeaderIndex(master.Headers).Require(RequiredColumns...)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.DayRow, 0, master.Len())
	for r := range master.Rows {
		get := func(label string) string {
			return master.Cell(r, cols[label])
		}

		days := eventdays.Split(get(domain.ColEventDates))
		if len(days) == 0 {
			continue
		}

		base := domain.DayRow{
			DNI:           domain.CanonicalID(get(domain.ColDNI)),
			Name:          strings.ToUpper(get(domain.ColName)),
			Category:      strings.ToUpper(get(domain.ColCategory)),
			Receipt:       get(domain.ColReceipt),
			Document:      get(domain.ColDocument),
			CoversTwoDays: len(days) == eventdays.MaxDays,
			Stall:         get(domain.ColStall),
		}
		if amount, ok := textnorm.ToNumberMaybe(get(domain.ColPayment)); ok {
			base.Payment = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
		if entry, ok := textnorm.ParsePossibleDate(get(domain.ColEntryDate)); ok {
			entry = textnorm.DateOnly(entry)
			base.EntryDate = &entry
		}

		for _, day := range days {
			row := base
			row.EventDay = day
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Search returns the rows whose identity contains query or whose name
// contains it, ignoring case and accents. An empty query matches nothing.
func Search(rows []domain.DayRow, query string) []domain.DayRow {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.DayRow{}
	}
	needle := foldText(query)

	matches := make([]domain.DayRow, 0)
	for _, row := range rows {
		if strings.Contains(row.DNI, query) || strings.Contains(foldText(row.Name), needle) {
			matches = append(matches, row)
		}
	}
	return matches
}

// Find returns the row for key, if the view has one.
func Find(rows []domain.DayRow, key domain.VerificationKey) (domain.DayRow, bool) {
	for _, row := range rows {
		if row.Key() == key {
			return row, true
		}
	}
	return domain.DayRow{}, false
}

func foldText(text string) string {
	return strings.ToLower(textnorm.StripAccents(text))
}
