package app

import (
	"fmt"
	"strings"
	"time"

	"bosswatch/internal/alert"
	"bosswatch/internal/config"
	"bosswatch/internal/notify"
	"bosswatch/internal/roster"
	"bosswatch/internal/schedule"
	"bosswatch/internal/sheet"
	"bosswatch/internal/timeparse"
	"bosswatch/pkg/logx"
)

const defaultTimezone = "Asia/Bangkok"

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapLocation(cfg *config.Config) (*time.Location, error) {
	tz := strings.TrimSpace(cfg.Alerts.Timezone)
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("alerts.timezone: invalid %q: %w", tz, err)
	}
	return loc, nil
}

func mapSheetClient(cfg *config.Config) (sheet.ClientConfig, error) {
	timeout, err := config.ParseDurationField("sheet.timeout", cfg.Sheet.Timeout)
	if err != nil {
		return sheet.ClientConfig{}, err
	}
	return sheet.ClientConfig{
		SpreadsheetID: cfg.Sheet.SpreadsheetID,
		APIKey:        cfg.Sheet.APIKey,
		BaseURL:       cfg.Sheet.BaseURL,
		Timeout:       timeout,
	}, nil
}

func mapRetry(cfg *config.Config) (sheet.RetryPolicy, error) {
	delay, err := config.ParseDurationOrDefault("sheet.fetch_delay", cfg.Sheet.FetchDelay, 2*time.Second)
	if err != nil {
		return sheet.RetryPolicy{}, err
	}
	attempts := cfg.Sheet.FetchAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return sheet.RetryPolicy{Attempts: attempts, Delay: delay}, nil
}

// mapRoster materializes the static tables: built-in defaults overridden by
// whatever the statics section declares.
func mapRoster(cfg *config.Config) (roster.Config, error) {
	rc := roster.DefaultConfig()

	if cfg.Sheet.ReadRange != "" {
		rc.ReadRange = cfg.Sheet.ReadRange
	}
	if cfg.Sheet.FallbackWorksheet != "" {
		rc.FallbackWorksheet = cfg.Sheet.FallbackWorksheet
	}

	st := cfg.Statics
	if len(st.Aliases) > 0 {
		rc.Aliases = st.Aliases
	}
	if len(st.WeekdayAliases) > 0 {
		rc.WeekdayAliases = map[string]time.Weekday{}
		for name, dayName := range st.WeekdayAliases {
			day, ok := schedule.ParseWeekday(dayName, nil)
			if !ok {
				return roster.Config{}, fmt.Errorf("statics.weekday_aliases[%q]: unknown weekday %q", name, dayName)
			}
			rc.WeekdayAliases[name] = day
		}
	}
	if len(st.Weekly) > 0 {
		rc.Weekly = map[string][]schedule.WeekdayTime{}
		for name, slots := range st.Weekly {
			pairs := schedule.ParseWeeklyPairs(strings.Join(slots, "; "), rc.WeekdayAliases)
			if len(pairs) != len(slots) {
				return roster.Config{}, fmt.Errorf("statics.weekly[%q]: unparseable slot in %v", name, slots)
			}
			rc.Weekly[name] = pairs
		}
	}
	if len(st.WorldNames) > 0 {
		rc.WorldNames = st.WorldNames
	}
	if len(st.WorldTimes) > 0 {
		times := make([]timeparse.TimeOfDay, 0, len(st.WorldTimes))
		for _, raw := range st.WorldTimes {
			tod, ok := timeparse.ParseTimeOfDay(raw)
			if !ok {
				return roster.Config{}, fmt.Errorf("statics.world_times: invalid time %q", raw)
			}
			times = append(times, tod)
		}
		rc.WorldTimes = times
	}
	return rc, nil
}

func mapNotifier(cfg *config.Config) (notify.Config, error) {
	retryBase, err := config.ParseDurationField("notifier.retry_base", cfg.Notifier.RetryBase)
	if err != nil {
		return notify.Config{}, err
	}
	retryMaxDelay, err := config.ParseDurationField("notifier.retry_max_delay", cfg.Notifier.RetryMaxDelay)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		Workers:       cfg.Notifier.Workers,
		QueueSize:     cfg.Notifier.QueueSize,
		RatePerSec:    cfg.Notifier.RatePerSec,
		RetryMax:      cfg.Notifier.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMaxDelay,
		Destinations:  cfg.Alerts.Destinations,
		DefaultChatID: cfg.Alerts.DefaultChatID,
	}, nil
}

func mapAlerts(cfg *config.Config, rc roster.Config, loc *time.Location) (alert.Config, error) {
	tick, err := config.ParseDurationOrDefault("alerts.tick_every", cfg.Alerts.TickEvery, time.Minute)
	if err != nil {
		return alert.Config{}, err
	}

	var ths []alert.Threshold
	for i, tc := range cfg.Alerts.Thresholds {
		if tc.Minutes <= 0 {
			return alert.Config{}, fmt.Errorf("alerts.thresholds[%d].minutes must be > 0", i)
		}
		th := alert.Threshold{Lead: time.Duration(tc.Minutes) * time.Minute}
		if tc.WindowSeconds > 0 {
			th.Window = time.Duration(tc.WindowSeconds) * time.Second
		}
		ths = append(ths, th)
	}

	return alert.Config{
		TickEvery:  tick,
		Thresholds: ths,
		Mention:    cfg.Alerts.Mention,
		WorldNames: rc.WorldNames,
		Now:        func() time.Time { return time.Now().In(loc) },
	}, nil
}
