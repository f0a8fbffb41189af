package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses one of the config's Go-duration strings, such as
// telegram.poll_timeout, sheet.fetch_delay or alerts.tick_every. Empty means
// unset and yields zero; negative values are rejected so a typo can't turn a
// retry delay into a busy loop. path names the field in the error.
func ParseDurationField(path, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault substitutes def for unset fields, for knobs where
// zero has no meaning of its own (a 0s poll timeout is never intended).
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
