package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	dayLayout = "2006-01-02"
	// UnavailableDates hold UTC midnights in this shape.
	unavailableTail = "T00:00:00.000Z"
)

// ParseDay accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns the UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func FormatDay(t time.Time) string {
	return t.UTC().Format(dayLayout) + unavailableTail
}

// NormalizeDates dedupes and sorts. The fixed-width format sorts chronologically as text.
func NormalizeDates(dates []string) []string {
	out := make([]string, 0, len(dates))
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// CanonicalDates parses every entry and returns the normalized set. bad holds
// the index of each entry that is not a date; it is nil when all parsed.
func CanonicalDates(dates []string) (out []string, bad map[int]error) {
	out = make([]string, 0, len(dates))
	for i, s := range dates {
		t, err := ParseDay(s)
		if err != nil {
			if bad == nil {
				bad = map[int]error{}
			}
			bad[i] = err
			continue
		}
		out = append(out, FormatDay(t))
	}
	return NormalizeDates(out), bad
}
