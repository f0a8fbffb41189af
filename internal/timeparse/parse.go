// Package timeparse converts raw spreadsheet cell values into calendar dates,
// times of day, or timezone-aware instants.
//
// Cells arrive as strings in a handful of shapes: blank/sentinel tokens,
// HH:MM[:SS] clock times, textual dates in several formats, combined
// date+time text, or numeric day-count serials (epoch 1899-12-30, the
// spreadsheet convention). Parsers return ok=false for anything they do not
// recognize; a bad cell is never an error.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sentinels are tokens that mean "no value" in the sheet.
var sentinels = map[string]struct{}{
	"":        {},
	"-":       {},
	"#VALUE!": {},
	"NA":      {},
	"N/A":     {},
	"None":    {},
	"null":    {},
	"NULL":    {},
}

// IsSentinel reports whether the trimmed cell value is a no-value token.
func IsSentinel(raw string) bool {
	_, ok := sentinels[strings.TrimSpace(raw)]
	return ok
}

var clockRE = regexp.MustCompile(`^\s*(\d{1,2})[:.](\d{2})(?::(\d{2}))?\s*$`)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay parses HH:MM[:SS] (also accepting "." as separator).
// Out-of-range components and sentinel tokens return ok=false.
func ParseTimeOfDay(raw string) (TimeOfDay, bool) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return TimeOfDay{}, false
	}
	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss := 0
	if m[3] != "" {
		ss, _ = strconv.Atoi(m[3])
	}
	if hh > 23 || mm > 59 || ss > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: hh, Minute: mm, Second: ss}, true
}

// serialEpoch is the day-zero of spreadsheet numeric serials.
func serialEpoch(loc *time.Location) time.Time {
	return time.Date(1899, time.December, 30, 0, 0, 0, 0, loc)
}

// dateLayouts are tried in order; first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseDate parses a date-only cell: a numeric day-count serial (fractional
// part ignored) or one of the textual layouts. The result is midnight UTC;
// callers combine it with a TimeOfDay and location themselves.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		days := int(f) // date-only: drop the time fraction
		return serialEpoch(time.UTC).AddDate(0, 0, days), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// instantLayouts are the combined date+time shapes seen in kill_dt cells.
var instantLayouts = []string{
	"02/01/2006, 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006, 15:04",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant parses a combined date+time cell into an instant in loc:
// a fractional day-count serial or one of the textual layouts.
func ParseInstant(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		secs := f * 86400
		return serialEpoch(loc).Add(time.Duration(secs * float64(time.Second))), true
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Combine builds an instant from a date (any instant on that calendar day)
// and a time of day, in loc.
func Combine(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, tod.Second, 0, loc)
}

// NearSameMinute reports whether two instants are within tolMinutes of each
// other, with the difference truncated to whole minutes. Zero instants never
// match. Used to detect a "next spawn" cell that is actually a copy of the
// last kill time.
func NearSameMinute(a, b time.Time, tolMinutes int) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d/time.Minute) <= tolMinutes
}
