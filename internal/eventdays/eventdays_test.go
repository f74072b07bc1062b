package eventdays

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDays(t *testing.T, raw string, got []time.Time, want ...time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Split(%q) returned %d days (%v), want %d", raw, len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("Split(%q)[%d] = %s, want %s", raw, i, got[i], want[i])
		}
	}
}

func TestSplitTwoDays(t *testing.T) {
	raw := "10/05/2024 Y 11/05/2024"
	assertDays(t, raw, Split(raw), day(2024, time.May, 10), day(2024, time.May, 11))
}

func TestSplitLowercaseConnectorAndOrder(t *testing.T) {
	raw := "11/05/2024 y 10/05/2024"
	assertDays(t, raw, Split(raw), day(2024, time.May, 10), day(2024, time.May, 11))
}

func TestSplitSingleDayAndDashes(t *testing.T) {
	raw := "sábado 18-05-2024"
	assertDays(t, raw, Split(raw), day(2024, time.May, 18))
}

func TestSplitDeduplicates(t *testing.T) {
	raw := "10/05/2024 Y 10/05/2024"
	assertDays(t, raw, Split(raw), day(2024, time.May, 10))
}

func TestSplitKeepsFirstTwoSorted(t *testing.T) {
	raw := "12/05/2024, 10/05/2024 Y 11/05/2024"
	assertDays(t, raw, Split(raw), day(2024, time.May, 10), day(2024, time.May, 11))
}

func TestSplitSkipsUnparseableFragments(t *testing.T) {
	raw := "45/13/2024 Y 11/05/2024"
	assertDays(t, raw, Split(raw), day(2024, time.May, 11))
}

func TestSplitWithoutDates(t *testing.T) {
	for _, raw := range []string{"pendiente", "", "Y", "por confirmar"} {
		if got := Split(raw); len(got) != 0 {
			t.Fatalf("Split(%q) = %v, want no days", raw, got)
		}
	}
}

func TestJoin(t *testing.T) {
	first := day(2024, time.May, 10)
	second := day(2024, time.May, 11)

	if got := Join(first, nil); got != "10/05/2024" {
		t.Fatalf("single day rendered as %q", got)
	}
	if got := Join(first, &second); got != "10/05/2024 Y 11/05/2024" {
		t.Fatalf("two days rendered as %q", got)
	}
	if got := Join(time.Time{}, &second); got != "11/05/2024" {
		t.Fatalf("missing first day rendered as %q", got)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	start := day(2023, time.December, 30)
	for offset := 0; offset < 40; offset++ {
		d1 := start.AddDate(0, 0, offset)
		d2 := d1.AddDate(0, 0, 1+offset%3)

		assertDays(t, Join(d1, &d2), Split(Join(d1, &d2)), d1, d2)
		assertDays(t, Join(d1, nil), Split(Join(d1, nil)), d1)
	}
}
