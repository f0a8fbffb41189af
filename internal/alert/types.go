// Package alert owns the periodic tick that recomputes the roster, evaluates
// time-to-spawn thresholds and emits each notification exactly once per
// (boss, instant, threshold).
package alert

import (
	"time"
)

// Threshold is one configured lead time with its tolerance window. A tick
// landing within Window either side of the crossing counts as on time.
type Threshold struct {
	Lead   time.Duration
	Window time.Duration
}

// DefaultThresholds mirrors the stock alert ladder.
var DefaultThresholds = []Threshold{
	{Lead: 60 * time.Minute, Window: 75 * time.Second},
	{Lead: 30 * time.Minute, Window: 75 * time.Second},
	{Lead: 5 * time.Minute, Window: 75 * time.Second},
}

type Config struct {
	// TickEvery is the roster re-evaluation period.
	TickEvery time.Duration
	// Thresholds is the alert ladder; the smallest lead counts as most
	// urgent and is the only one carrying the mention directive.
	Thresholds []Threshold
	// Mention is the elevated-alert directive appended to urgent alerts
	// (e.g. "@boss_hunters"). Empty disables mentions.
	Mention string
	// WorldNames is the member set that must co-occur for the composite
	// world alert.
	WorldNames []string
	// PruneAfter is how long after its occurrence instant a fired key is
	// kept before eviction.
	PruneAfter time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// mostUrgent returns the index of the smallest configured lead, -1 when the
// ladder is empty.
func mostUrgent(ths []Threshold) int {
	best := -1
	for i, th := range ths {
		if best < 0 || th.Lead < ths[best].Lead {
			best = i
		}
	}
	return best
}
