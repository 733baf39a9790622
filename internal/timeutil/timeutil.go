package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func EndOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 23, 59, 59, 999_999_999, value.Location())
}

func DayKey(value time.Time) string {
	return value.Format(DayLayout)
}

func MonthKey(value time.Time) string {
	return value.Format(MonthLayout)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Key identifies the range in cache entries ("from|to").
func (r DateRange) Key() string {
	return DayKey(r.From) + "|" + DayKey(r.To)
}

func (r DateRange) String() string {
	return DayKey(r.From) + ".." + DayKey(r.To)
}

// LastDays returns the range covering the given number of days before now
// through the end of today.
func LastDays(now time.Time, days int) DateRange {
	if days < 0 {
		days = 0
	}
	return DateRange{
		From: StartOfDay(now.AddDate(0, 0, -days)),
		To:   EndOfDay(now),
	}
}

// ParseRange parses YYYY-MM-DD bounds. Empty bounds fall back to fallback.
func ParseRange(fromValue, toValue string, fallback DateRange) (DateRange, error) {
	out := fallback

	if raw := strings.TrimSpace(fromValue); raw != "" {
		parsed, err := time.ParseInLocation(DayLayout, raw, time.Local)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid from date %q (expected YYYY-MM-DD)", raw)
		}
		out.From = StartOfDay(parsed)
	}
	if raw := strings.TrimSpace(toValue); raw != "" {
		parsed, err := time.ParseInLocation(DayLayout, raw, time.Local)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid to date %q (expected YYYY-MM-DD)", raw)
		}
		out.To = EndOfDay(parsed)
	}
	if out.From.After(out.To) {
		return DateRange{}, fmt.Errorf("invalid range: from %s is after to %s", DayKey(out.From), DayKey(out.To))
	}
	return out, nil
}
