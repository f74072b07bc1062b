// Package eventdays reads and writes the free-text event-date field of a
// vendor inscription, which covers one or two fair days.
package eventdays

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/vendorfair/internal/textnorm"
)

// MaxDays is the largest number of event days a single inscription covers.
const MaxDays = 2

// Connector joins two days in the rendered field ("10/05/2024 Y 11/05/2024").
const Connector = " Y "

var (
	standaloneY = regexp.MustCompile(`\bY\b`)
	datePattern = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
)

// Split extracts up to two distinct calendar dates from raw, sorted
// ascending. Fragments that look like dates but do not parse are skipped;
// text without any parseable date yields an empty slice.
func Split(raw string) []time.Time {
	text := strings.ToUpper(raw)
	text = strings.ReplaceAll(text, Connector, " ")
	text = standaloneY.ReplaceAllString(text, " ")

	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0, MaxDays)
	for _, match := range datePattern.FindAllString(text, -1) {
		parsed, ok := textnorm.ParsePossibleDate(match)
		if !ok {
			continue
		}
		day := textnorm.DateOnly(parsed)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > MaxDays {
		days = days[:MaxDays]
	}
	return days
}

// Join renders one or two days in the format Split reads back.
func Join(first time.Time, second *time.Time) string {
	rendered := textnorm.FormatDate(first)
	if second == nil || second.IsZero() {
		return rendered
	}
	if first.IsZero() {
		return textnorm.FormatDate(*second)
	}
	return rendered + Connector + textnorm.FormatDate(*second)
}
