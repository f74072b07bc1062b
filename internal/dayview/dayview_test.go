package dayview

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/table"
)

func masterFixture(rows ...[]string) table.Table {
	return table.Table{
		Headers: []string{
			"N°", "FECHA DE INGRESO", "Documento", "Nombre", "DNI", "Rubro",
			"Pago", "N° Recibo", "Fecha del Evento", "N° Puesto",
		},
		Rows: rows,
	}
}

func TestNormalizeExpandsTwoDayRecords(t *testing.T) {
	master := masterFixture(
		[]string{"1", "02/04/2024", "EXP-1", " ana quispe ", "01234567", "comida", "S/. 40", "R-77", "10/05/2024 Y 11/05/2024", "A-3"},
	)

	rows, err := Normalize(master)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 day rows, got %d", len(rows))
	}

	wantDays := []time.Time{
		time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 11, 0, 0, 0, 0, time.UTC),
	}
	for i, row := range rows {
		if !row.EventDay.Equal(wantDays[i]) {
			t.Fatalf("row %d has day %s, want %s", i, row.EventDay, wantDays[i])
		}
		if !row.CoversTwoDays {
			t.Fatalf("row %d should cover two days", i)
		}
		if row.DNI != "01234567" || row.Name != "ANA QUISPE" || row.Category != "COMIDA" || row.Receipt != "R-77" {
			t.Fatalf("unexpected row %d: %+v", i, row)
		}
		if !row.Payment.Valid || !row.Payment.Decimal.Equal(decimal.NewFromInt(40)) {
			t.Fatalf("unexpected payment on row %d: %+v", i, row.Payment)
		}
		if row.EntryDate == nil || row.EntryDate.Month() != time.April || row.Stall != "A-3" {
			t.Fatalf("unexpected row %d: %+v", i, row)
		}
	}
}

func TestNormalizeSingleDayAndExclusions(t *testing.T) {
	master := masterFixture(
		[]string{"1", "", "", "Luis", "7654321", "ropa", "exonerado", "", "18/05/2024", ""},
		[]string{"2", "", "", "Rosa", "1111", "flores", "20", "R-2", "pendiente", ""},
		[]string{"3", "", "", "Juan", "2222", "juguetes", "20", "R-3", "", ""},
	)

	rows, err := Normalize(master)
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the dated record to appear, got %d rows", len(rows))
	}
	row := rows[0]
	if row.DNI != "7654321" || row.CoversTwoDays {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Payment.Valid {
		t.Fatalf("expected non-numeric payment to be absent, got %+v", row.Payment)
	}
	if row.EntryDate != nil {
		t.Fatalf("expected empty entry date to be absent")
	}
}

func TestNormalizeFailsOnMissingColumn(t *testing.T) {
	master := table.Table{
		Headers: []string{"Nombre", "DNI", "Rubro", "Pago", "N° Recibo", "Documento", "Fecha de Ingreso", "N° Puesto"},
		Rows:    [][]string{{"Ana", "1", "x", "1", "1", "", "", "", ""}},
	}

	rows, err := Normalize(master)
	var missing *table.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if missing.Field != domain.ColEventDates {
		t.Fatalf("expected missing %q, got %q", domain.ColEventDates, missing.Field)
	}
	if rows != nil {
		t.Fatalf("expected no partial output, got %d rows", len(rows))
	}
}

func TestSearchByIdentityOrName(t *testing.T) {
	rows := []domain.DayRow{
		{DNI: "01234567", Name: "ANA MUÑOZ"},
		{DNI: "7654321", Name: "LUIS PÉREZ"},
	}

	if got := Search(rows, "0123"); len(got) != 1 || got[0].DNI != "01234567" {
		t.Fatalf("identity search returned %+v", got)
	}
	if got := Search(rows, "munoz"); len(got) != 1 || got[0].Name != "ANA MUÑOZ" {
		t.Fatalf("accent-insensitive search returned %+v", got)
	}
	if got := Search(rows, "pérez"); len(got) != 1 {
		t.Fatalf("accented query returned %+v", got)
	}
	if got := Search(rows, "  "); len(got) != 0 {
		t.Fatalf("blank query should match nothing, got %+v", got)
	}
}

func TestFind(t *testing.T) {
	day := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	rows := []domain.DayRow{{DNI: "01234567", EventDay: day, Stall: "A-3"}}

	row, ok := Find(rows, domain.NewVerificationKey("01234567", day.Add(9*time.Hour)))
	if !ok || row.Stall != "A-3" {
		t.Fatalf("expected row to be found, got %+v (%v)", row, ok)
	}
	if _, ok := Find(rows, domain.NewVerificationKey("01234567", day.AddDate(0, 0, 1))); ok {
		t.Fatalf("expected other day to be absent")
	}
}
