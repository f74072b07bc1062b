package textnorm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStripAccents(t *testing.T) {
	cases := map[string]string{
		"Dirección":            "Direccion",
		"Ubicación Solicitada": "Ubicacion Solicitada",
		"MUÑOZ":                "MUNOZ",
		"":                     "",
	}
	for input, want := range cases {
		if got := StripAccents(input); got != want {
			t.Fatalf("StripAccents(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Fecha  de-Ingreso!":    "fecha de ingreso",
		"  N° Recibo ":          "n recibo",
		"Teléfono":              "telefono",
		"FECHA DEL EVENTO":      "fecha del evento",
		"Fecha de Autorización": "fecha de autorizacion",
		"---":                   "",
	}
	for input, want := range cases {
		if got := NormalizeHeader(input); got != want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParsePossibleDateFormats(t *testing.T) {
	want := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	inputs := []string{
		"10/05/2024",
		"2024-05-10",
		"10-05-2024",
		"2024/05/10",
		"10/5/24",
		" 10/05/2024 ",
		"10.05.2024",
		"2024-05-10 08:30:00",
	}
	for _, input := range inputs {
		got, ok := ParsePossibleDate(input)
		if !ok {
			t.Fatalf("expected %q to parse", input)
		}
		if !DateOnly(got).Equal(want) {
			t.Fatalf("ParsePossibleDate(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestParsePossibleDateIsDayFirst(t *testing.T) {
	got, ok := ParsePossibleDate("03/04/2024")
	if !ok {
		t.Fatalf("expected date to parse")
	}
	if got.Day() != 3 || got.Month() != time.April {
		t.Fatalf("expected 3 April, got %s", got)
	}
}

func TestParsePossibleDateRejectsText(t *testing.T) {
	for _, input := range []any{"pendiente", "", "32/01/2024", 42, nil, time.Time{}} {
		if got, ok := ParsePossibleDate(input); ok {
			t.Fatalf("expected %v to be rejected, got %s", input, got)
		}
	}
}

func TestParsePossibleDateKeepsTypedTimes(t *testing.T) {
	ts := time.Date(2024, time.May, 11, 15, 4, 5, 0, time.Local)
	got, ok := ParsePossibleDate(ts)
	if !ok || !got.Equal(ts) {
		t.Fatalf("expected typed time to pass through, got %s (%v)", got, ok)
	}
	got, ok = ParsePossibleDate(&ts)
	if !ok || !got.Equal(ts) {
		t.Fatalf("expected typed time pointer to pass through, got %s (%v)", got, ok)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2024, time.May, 1, 23, 0, 0, 0, time.UTC)); got != "01/05/2024" {
		t.Fatalf("unexpected rendering %q", got)
	}
	if got := FormatDate(time.Time{}); got != "" {
		t.Fatalf("expected zero time to render empty, got %q", got)
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2024, time.May, 10, 18, 45, 0, 0, time.FixedZone("PET", -5*3600))
	got := DateOnly(ts)
	want := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOnly = %s, want %s", got, want)
	}
}

func TestToNumberMaybe(t *testing.T) {
	cases := map[string]string{
		"S/. 40":   "40",
		"S/ 40.50": "40.5",
		"40S":      "40",
		"1,5":      "1.5",
		"1.234.56": "1234.56",
		"  120 ":   "120",
	}
	for input, want := range cases {
		got, ok := ToNumberMaybe(input)
		if !ok {
			t.Fatalf("expected %q to parse", input)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ToNumberMaybe(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestToNumberMaybeAbsent(t *testing.T) {
	for _, input := range []string{"", "   ", "S/.", "cuarenta", "1,000,5"} {
		if got, ok := ToNumberMaybe(input); ok {
			t.Fatalf("expected %q to be absent, got %s", input, got)
		}
	}
}
