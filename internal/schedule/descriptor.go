// Package schedule resolves a boss's schedule descriptor to its next
// occurrence. A descriptor is one of three variants: a fixed weekly pattern,
// an interval anchored at the last observed kill, or an explicit date/time
// read from the sheet (optionally carrying the interval data as fallback for
// stale cells).
package schedule

import (
	"regexp"
	"strings"
	"time"

	"bosswatch/internal/timeparse"
)

// Kind selects the descriptor variant. Exactly one variant applies per
// entity per cycle.
type Kind int

const (
	KindFixedWeekly Kind = iota
	KindInterval
	KindExplicit
)

func (k Kind) String() string {
	switch k {
	case KindFixedWeekly:
		return "fixed-weekly"
	case KindInterval:
		return "interval"
	case KindExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// WeekdayTime is one (weekday, wall-clock time) slot of a weekly pattern.
type WeekdayTime struct {
	Day time.Weekday
	At  timeparse.TimeOfDay
}

// Descriptor is the tagged union of schedule rules.
//
// FixedWeekly uses Pairs. Interval uses Anchor+PeriodHours. Explicit uses the
// Date/Time parts; Anchor and PeriodHours, when present on an Explicit
// descriptor, serve as staleness reference and fallback (the sheet's "next"
// cell is distrusted when it mirrors the kill time or lies in the past).
type Descriptor struct {
	Kind Kind

	Pairs []WeekdayTime

	Anchor      time.Time
	PeriodHours int

	Date    time.Time
	HasDate bool
	Time    timeparse.TimeOfDay
	HasTime bool
}

var (
	windowRE = regexp.MustCompile(`(\d{1,2}[:.]\d{2})\s*[–\-]\s*\d{1,2}[:.]\d{2}`)
	hoursRE  = regexp.MustCompile(`(?i)(\d+)\s*(?:h(?:ours?|rs?)?\b|ชั่วโมง)`)
)

// weekdayNames maps lowercase English names and abbreviations to weekdays.
// Deployment-specific vocabularies (the sheets this was built for carry Thai
// day names) extend it via the aliases argument of ParseWeeklyPairs.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday resolves a single weekday name, consulting aliases first.
func ParseWeekday(name string, aliases map[string]time.Weekday) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	if day, ok := aliases[name]; ok {
		return day, true
	}
	day, ok := weekdayNames[strings.ToLower(name)]
	return day, ok
}

// ParseWeeklyPairs reads a free-text weekly pattern like
// "tue 10:30; thu 18:00" or "sun 16:00-19:00" (a time window contributes its
// start). Parts that don't begin with a known weekday name are skipped.
func ParseWeeklyPairs(detail string, aliases map[string]time.Weekday) []WeekdayTime {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return nil
	}
	var out []WeekdayTime
	for _, part := range strings.Split(detail, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, rest, ok := splitWeekday(part, aliases)
		if !ok {
			continue
		}
		raw := rest
		if m := windowRE.FindStringSubmatch(rest); m != nil {
			raw = m[1]
		}
		tod, ok := timeparse.ParseTimeOfDay(raw)
		if !ok {
			continue
		}
		out = append(out, WeekdayTime{Day: day, At: tod})
	}
	return out
}

func splitWeekday(part string, aliases map[string]time.Weekday) (time.Weekday, string, bool) {
	// Alias names may have no separator before the time in hand-edited cells,
	// so match by prefix. Prefer the longest match ("thursday" over "thu").
	lower := strings.ToLower(part)
	var (
		best    int
		bestDay time.Weekday
		found   bool
	)
	for name, day := range aliases {
		if name != "" && strings.HasPrefix(part, name) && len(name) > best {
			best, bestDay, found = len(name), day, true
		}
	}
	for name, day := range weekdayNames {
		if strings.HasPrefix(lower, name) && len(name) > best {
			best, bestDay, found = len(name), day, true
		}
	}
	if !found {
		return 0, "", false
	}
	return bestDay, strings.TrimSpace(part[best:]), true
}

// ParsePeriodHours extracts an hour count from free-text spawn detail, e.g.
// "8 hours", "12h", or the Thai "8 ชั่วโมง".
func ParsePeriodHours(detail string) (int, bool) {
	m := hoursRE.FindStringSubmatch(detail)
	if m == nil {
		return 0, false
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}
