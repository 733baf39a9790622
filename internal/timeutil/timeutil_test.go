package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 123, time.Local)
	got := StartOfDay(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestDateRangeKey(t *testing.T) {
	t.Parallel()

	r := DateRange{
		From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local),
		To:   time.Date(2026, 2, 28, 23, 59, 59, 0, time.Local),
	}
	if got := r.Key(); got != "2026-02-01|2026-02-28" {
		t.Fatalf("unexpected range key %q", got)
	}
}

func TestLastDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 31, 15, 0, 0, 0, time.Local)
	r := LastDays(now, 30)

	if got := DayKey(r.From); got != "2026-03-01" {
		t.Fatalf("unexpected from %q", got)
	}
	if got := DayKey(r.To); got != "2026-03-31" {
		t.Fatalf("unexpected to %q", got)
	}
	if r.To.Hour() != 23 {
		t.Fatalf("expected range to end at end of day, got %v", r.To)
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	fallback := LastDays(time.Date(2026, 3, 31, 12, 0, 0, 0, time.Local), 7)

	got, err := ParseRange("", "", fallback)
	if err != nil {
		t.Fatalf("parse empty range: %v", err)
	}
	if got.Key() != fallback.Key() {
		t.Fatalf("expected fallback %q, got %q", fallback.Key(), got.Key())
	}

	got, err = ParseRange("2026-01-05", "2026-01-20", fallback)
	if err != nil {
		t.Fatalf("parse explicit range: %v", err)
	}
	if got.Key() != "2026-01-05|2026-01-20" {
		t.Fatalf("unexpected range %q", got.Key())
	}

	if _, err := ParseRange("2026-02-01", "2026-01-01", fallback); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := ParseRange("01.02.2026", "", fallback); err == nil {
		t.Fatalf("expected error for invalid layout")
	}
}
