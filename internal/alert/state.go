package alert

import (
	"strconv"
	"time"
)

// State is the fired-key set. It is owned by the tick routine: single
// writer, mutated only between roster rebuild and send, so it carries no
// lock.
type State struct {
	fired map[string]time.Time
}

func NewState() *State {
	return &State{fired: map[string]time.Time{}}
}

// firedKey identifies one (target, minute-rounded instant, threshold)
// firing. A corrected source instant yields a fresh key and may fire again.
func firedKey(name string, at time.Time, lead time.Duration) string {
	return name + "|" + at.Format("200601021504") + "|" + strconv.Itoa(int(lead.Minutes()))
}

// Fire records the key and reports whether this was its first firing.
func (s *State) Fire(key string, at time.Time) bool {
	if _, ok := s.fired[key]; ok {
		return false
	}
	s.fired[key] = at
	return true
}

// Prune evicts keys whose occurrence instant is more than horizon in the
// past. Returns the number evicted.
func (s *State) Prune(now time.Time, horizon time.Duration) int {
	if horizon <= 0 {
		return 0
	}
	n := 0
	for k, at := range s.fired {
		if now.Sub(at) > horizon {
			delete(s.fired, k)
			n++
		}
	}
	return n
}

func (s *State) Len() int { return len(s.fired) }
