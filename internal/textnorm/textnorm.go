// Package textnorm normalizes the free text found in hand-maintained
// spreadsheets: accents, header labels, dates and money amounts.
package textnorm

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DisplayLayout is the day/month/year layout used for every rendered date.
const DisplayLayout = "02/01/2006"

var (
	// strictLayouts are tried in order; the first match wins.
	strictLayouts = []string{
		"2/1/2006",
		"2006-1-2",
		"2-1-2006",
		"2006/1/2",
	}

	// lenientLayouts back the strict list with day-first variants seen in
	// exported sheets and typed cells rendered as text.
	lenientLayouts = []string{
		"2/1/06",
		"2-1-06",
		"2.1.2006",
		"2.1.06",
		"2/1/2006 15:04",
		"2/1/2006 15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2 Jan 2006",
		"2 January 2006",
		"Jan 2, 2006",
		"20060102",
	}

	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	currencyMarkers = []string{"S/.", "S/"}
)

// StripAccents decomposes text and removes combining marks, so "Dirección"
// becomes "Direccion".
func StripAccents(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// NormalizeHeader reduces a column label to a comparable key: accents and
// non-ASCII characters dropped, punctuation runs collapsed to one space,
// lower-cased and trimmed.
func NormalizeHeader(text string) string {
	text = StripAccents(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < unicode.MaxASCII {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	collapsed := nonAlphanumeric.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(collapsed)
}

// ParsePossibleDate interprets value as a calendar date. Typed times are
// returned unchanged; text is tried against the strict layouts first and a
// lenient day-first list afterwards. It never panics.
func ParsePossibleDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateText(v)
	case []byte:
		return parseDateText(string(v))
	default:
		return time.Time{}, false
	}
}

func parseDateText(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range strictLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	for _, layout := range lenientLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as DD/MM/YYYY. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayLayout)
}

// DateOnly drops the time of day, keeping the calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ToNumberMaybe parses a hand-typed money amount such as "S/. 40", "1,5" or
// "1.234.56". Absent, empty or unparseable input yields ok == false.
func ToNumberMaybe(text string) (decimal.Decimal, bool) {
	value := strings.ToUpper(strings.TrimSpace(text))
	if value == "" {
		return decimal.Zero, false
	}
	for _, marker := range currencyMarkers {
		value = strings.ReplaceAll(value, marker, "")
	}
	value = strings.ReplaceAll(value, " ", "")
	value = strings.TrimSuffix(value, "S")
	if value == "" {
		return decimal.Zero, false
	}

	commas := strings.Count(value, ",")
	periods := strings.Count(value, ".")
	if commas == 1 && periods == 0 {
		value = strings.Replace(value, ",", ".", 1)
	}
	if periods > 1 {
		last := strings.LastIndex(value, ".")
		value = strings.ReplaceAll(value[:last], ".", "") + value[last:]
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return parsed, true
}
