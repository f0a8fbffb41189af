// Package roster assembles the deduplicated, time-ordered list of upcoming
// boss occurrences from two origins: the statically configured recurring
// bosses (weekly patterns plus the daily world-boss table) and rows read from
// the tracking worksheet.
package roster

import (
	"strings"
	"time"

	"bosswatch/internal/schedule"
	"bosswatch/internal/timeparse"
)

// Origin tags where an occurrence came from; it doubles as the routing key
// for alert destinations.
type Origin string

// OriginStatic is the route for occurrences computed from the built-in
// tables; sheet occurrences carry their worksheet title.
const OriginStatic Origin = "static"

// Occurrence is one resolved future spawn.
type Occurrence struct {
	Name     string
	At       time.Time
	Level    string
	Location string
	Origin   Origin
	World    bool
}

// Config is the static-entity configuration plus source knobs.
type Config struct {
	// Weekly maps boss name to its fixed weekly slots.
	Weekly map[string][]schedule.WeekdayTime
	// WorldNames is the set of world bosses sharing the daily table.
	WorldNames []string
	// WorldTimes is the shared daily time table.
	WorldTimes []timeparse.TimeOfDay
	// Aliases normalizes misspelled sheet names ("Partò" -> "Parto").
	Aliases map[string]string
	// WeekdayAliases extends the weekday vocabulary of spawn_detail parsing.
	WeekdayAliases map[string]time.Weekday

	ReadRange         string
	FallbackWorksheet string
}

// dedupKey is (name, minute-rounded instant).
func dedupKey(name string, at time.Time) string {
	return name + "|" + at.Format("200601021504")
}

// NormalizeName trims and applies the alias table. The "(tomorrow)" suffix
// some sheet rows carry is stripped before matching.
func (c Config) NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.TrimSuffix(name, "(tomorrow)"))
	if alias, ok := c.Aliases[name]; ok {
		return alias
	}
	return name
}

// IsWorld reports whether the (normalized) name belongs to the world set.
func (c Config) IsWorld(name string) bool {
	name = c.NormalizeName(name)
	for _, w := range c.WorldNames {
		if name == w {
			return true
		}
	}
	return false
}
