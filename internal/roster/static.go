package roster

import (
	"time"

	"bosswatch/internal/schedule"
	"bosswatch/internal/timeparse"
)

func wt(day time.Weekday, hh, mm int) schedule.WeekdayTime {
	return schedule.WeekdayTime{Day: day, At: timeparse.TimeOfDay{Hour: hh, Minute: mm}}
}

// DefaultWeekly is the built-in fixed weekly table. Deployments override it
// via the statics config section.
var DefaultWeekly = map[string][]schedule.WeekdayTime{
	"Clamantis": {wt(time.Monday, 10, 30), wt(time.Thursday, 18, 0)},
	"Sapphirus": {wt(time.Sunday, 16, 0), wt(time.Tuesday, 10, 30)},
	"Neutro":    {wt(time.Tuesday, 18, 0), wt(time.Thursday, 10, 30)},
	"Thymel":    {wt(time.Monday, 18, 0), wt(time.Wednesday, 10, 30)},
	"Millavi":   {wt(time.Saturday, 14, 0)},
	"Ringor":    {wt(time.Saturday, 16, 0)},
	"Roderick":  {wt(time.Friday, 18, 0)},
	"Aurak":     {wt(time.Sunday, 20, 0), wt(time.Wednesday, 20, 0)},
}

// DefaultWorldNames is the world-boss set that must co-occur.
var DefaultWorldNames = []string{"Latan", "Parto", "Nedra"}

// DefaultWorldTimes is the shared daily spawn table for the world set.
var DefaultWorldTimes = []timeparse.TimeOfDay{
	{Hour: 10}, {Hour: 19},
}

// DefaultConfig returns a Config populated with the built-in tables.
func DefaultConfig() Config {
	return Config{
		Weekly:            DefaultWeekly,
		WorldNames:        DefaultWorldNames,
		WorldTimes:        DefaultWorldTimes,
		ReadRange:         "A1:K2000",
		FallbackWorksheet: "Boss Tracker",
	}
}

// staticOccurrences resolves the weekly table and the world daily table.
// All world bosses share the single earliest daily candidate, so a complete
// group always lands on one instant.
func (b *Builder) staticOccurrences(now time.Time) []Occurrence {
	out := make([]Occurrence, 0, len(b.cfg.Weekly)+len(b.cfg.WorldNames))

	for name, pairs := range b.cfg.Weekly {
		d := schedule.Descriptor{Kind: schedule.KindFixedWeekly, Pairs: pairs}
		if at, ok := schedule.Resolve(d, now); ok {
			out = append(out, Occurrence{Name: name, At: at, Origin: OriginStatic})
		}
	}

	if len(b.cfg.WorldTimes) > 0 {
		var worldAt time.Time
		for _, tod := range b.cfg.WorldTimes {
			cand := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, tod.Second, 0, now.Location())
			if !cand.After(now) {
				cand = cand.AddDate(0, 0, 1)
			}
			if worldAt.IsZero() || cand.Before(worldAt) {
				worldAt = cand
			}
		}
		for _, name := range b.cfg.WorldNames {
			out = append(out, Occurrence{Name: name, At: worldAt, Origin: OriginStatic, World: true})
		}
	}
	return out
}
