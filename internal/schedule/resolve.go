package schedule

import (
	"time"

	"bosswatch/internal/timeparse"
)

// proximityTolMinutes is the window within which an explicit "next" value is
// considered a copy of the kill anchor and therefore stale.
const proximityTolMinutes = 2

// NextWeekly returns the earliest instant strictly after now that falls on
// the given weekday at the given wall-clock time, in now's location.
func NextWeekly(day time.Weekday, at timeparse.TimeOfDay, now time.Time) time.Time {
	base := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, at.Second, 0, now.Location())
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	cand := base.AddDate(0, 0, offset)
	if !cand.After(now) {
		cand = cand.AddDate(0, 0, 7)
	}
	return cand
}

// NextInterval returns the smallest anchor + k*periodHours (integer k >= 1)
// strictly after now. This is catch-up semantics: the result stays aligned to
// the anchor grid no matter how many cycles have elapsed.
func NextInterval(anchor time.Time, periodHours int, now time.Time) time.Time {
	period := time.Duration(periodHours) * time.Hour
	cand := anchor.Add(period)
	if !cand.After(now) {
		elapsed := now.Sub(anchor).Hours()
		steps := int(elapsed/float64(periodHours)) + 1
		cand = anchor.Add(time.Duration(steps) * period)
	}
	return cand
}

// nextDaily returns today at the given time, rolled to tomorrow if already
// passed. Always strictly after now.
func nextDaily(at timeparse.TimeOfDay, now time.Time) time.Time {
	cand := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, at.Second, 0, now.Location())
	if !cand.After(now) {
		cand = cand.AddDate(0, 0, 1)
	}
	return cand
}

// resolveWeeklySet returns the earliest NextWeekly over all pairs.
func resolveWeeklySet(pairs []WeekdayTime, now time.Time) (time.Time, bool) {
	var best time.Time
	for _, p := range pairs {
		cand := NextWeekly(p.Day, p.At, now)
		if best.IsZero() || cand.Before(best) {
			best = cand
		}
	}
	return best, !best.IsZero()
}

// Resolve computes the single earliest future occurrence for the descriptor,
// or ok=false when the descriptor lacks the fields its variant needs
// (the entity is silently skipped this cycle).
func Resolve(d Descriptor, now time.Time) (time.Time, bool) {
	switch d.Kind {
	case KindFixedWeekly:
		return resolveWeeklySet(d.Pairs, now)

	case KindInterval:
		if d.Anchor.IsZero() || d.PeriodHours <= 0 {
			return time.Time{}, false
		}
		return NextInterval(d.Anchor, d.PeriodHours, now), true

	case KindExplicit:
		return resolveExplicit(d, now)

	default:
		return time.Time{}, false
	}
}

// resolveExplicit combines the date/time parts, applying the staleness
// override: a candidate that mirrors the anchor (within the proximity
// tolerance) or is not in the future is distrusted and recomputed from the
// anchor grid. Without anchor+period to fall back on, the entity is dropped
// rather than guessed at.
func resolveExplicit(d Descriptor, now time.Time) (time.Time, bool) {
	loc := now.Location()

	var cand time.Time
	switch {
	case d.HasDate && d.HasTime:
		cand = timeparse.Combine(d.Date, d.Time, loc)
	case d.HasTime:
		cand = nextDaily(d.Time, now)
	default:
		// No usable parts; only the interval fallback can help.
		return intervalFallback(d, now)
	}

	stale := !cand.After(now) || timeparse.NearSameMinute(cand, d.Anchor, proximityTolMinutes)
	if stale {
		return intervalFallback(d, now)
	}
	return cand, true
}

func intervalFallback(d Descriptor, now time.Time) (time.Time, bool) {
	if d.Anchor.IsZero() || d.PeriodHours <= 0 {
		return time.Time{}, false
	}
	return NextInterval(d.Anchor, d.PeriodHours, now), true
}
