package app

import (
	"testing"
	"time"

	"bosswatch/internal/config"
)

func TestMapRosterDefaults(t *testing.T) {
	t.Parallel()
	rc, err := mapRoster(&config.Config{})
	if err != nil {
		t.Fatalf("mapRoster: %v", err)
	}
	if len(rc.Weekly) == 0 || len(rc.WorldNames) != 3 || len(rc.WorldTimes) != 2 {
		t.Fatalf("defaults not applied: %+v", rc)
	}
	if rc.ReadRange == "" || rc.FallbackWorksheet == "" {
		t.Fatalf("sheet knobs missing: %+v", rc)
	}
}

func TestMapRosterOverrides(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Statics.Weekly = map[string][]string{
		"Grent": {"Monday 10:30", "Thursday 18:00"},
	}
	cfg.Statics.WorldNames = []string{"Latan"}
	cfg.Statics.WorldTimes = []string{"09:30"}
	cfg.Sheet.ReadRange = "A1:Z500"

	rc, err := mapRoster(cfg)
	if err != nil {
		t.Fatalf("mapRoster: %v", err)
	}
	pairs := rc.Weekly["Grent"]
	if len(pairs) != 2 || pairs[0].Day != time.Monday || pairs[1].Day != time.Thursday {
		t.Fatalf("weekly pairs = %+v", pairs)
	}
	if len(rc.WorldNames) != 1 || rc.WorldTimes[0].Hour != 9 || rc.WorldTimes[0].Minute != 30 {
		t.Fatalf("world override = %+v", rc)
	}
	if rc.ReadRange != "A1:Z500" {
		t.Fatalf("read range = %q", rc.ReadRange)
	}
}

func TestMapRosterRejectsBadSlot(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Statics.Weekly = map[string][]string{"Grent": {"Someday 10:30"}}
	if _, err := mapRoster(cfg); err == nil {
		t.Fatal("bad weekday slot accepted")
	}

	cfg = &config.Config{}
	cfg.Statics.WorldTimes = []string{"25:99"}
	if _, err := mapRoster(cfg); err == nil {
		t.Fatal("bad world time accepted")
	}
}

func TestMapAlerts(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Alerts.TickEvery = "30s"
	cfg.Alerts.Thresholds = []config.ThresholdConfig{
		{Minutes: 60}, {Minutes: 5, WindowSeconds: 90},
	}
	cfg.Alerts.Mention = "@hunters"

	rc, err := mapRoster(cfg)
	if err != nil {
		t.Fatalf("mapRoster: %v", err)
	}
	loc, err := mapLocation(cfg)
	if err != nil {
		t.Fatalf("mapLocation: %v", err)
	}
	if loc.String() != defaultTimezone {
		t.Fatalf("default location = %v", loc)
	}

	acfg, err := mapAlerts(cfg, rc, loc)
	if err != nil {
		t.Fatalf("mapAlerts: %v", err)
	}
	if acfg.TickEvery != 30*time.Second {
		t.Fatalf("tick = %v", acfg.TickEvery)
	}
	if acfg.Thresholds[0].Window != 0 || acfg.Thresholds[1].Window != 90*time.Second {
		t.Fatalf("thresholds = %+v", acfg.Thresholds)
	}
	if got := acfg.Now().Location().String(); got != defaultTimezone {
		t.Fatalf("clock location = %q", got)
	}

	cfg.Alerts.Thresholds = []config.ThresholdConfig{{Minutes: 0}}
	if _, err := mapAlerts(cfg, rc, loc); err == nil {
		t.Fatal("zero-minute threshold accepted")
	}
}
