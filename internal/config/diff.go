package config

import (
	"reflect"
	"strings"

	"bosswatch/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections plus safe
// structured attrs for logging (never includes secrets like tokens or API
// keys).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 16)

	// Telegram (never log token)
	if strings.TrimSpace(oldCfg.Telegram.Token) != strings.TrimSpace(newCfg.Telegram.Token) ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.poll_timeout", strings.TrimSpace(newCfg.Telegram.PollTimeout)),
			logx.Bool("telegram.token_set", strings.TrimSpace(newCfg.Telegram.Token) != ""),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Sheet (never log api key)
	if oldCfg.Sheet != newCfg.Sheet {
		changed = append(changed, "sheet")
		attrs = append(attrs,
			logx.String("sheet.spreadsheet_id", newCfg.Sheet.SpreadsheetID),
			logx.Bool("sheet.api_key_set", strings.TrimSpace(newCfg.Sheet.APIKey) != ""),
			logx.String("sheet.read_range", newCfg.Sheet.ReadRange),
		)
	}

	if !reflect.DeepEqual(oldCfg.Alerts, newCfg.Alerts) {
		changed = append(changed, "alerts")
		attrs = append(attrs,
			logx.String("alerts.timezone", newCfg.Alerts.Timezone),
			logx.String("alerts.tick_every", newCfg.Alerts.TickEvery),
			logx.Int("alerts.thresholds", len(newCfg.Alerts.Thresholds)),
			logx.Int("alerts.destinations", len(newCfg.Alerts.Destinations)),
		)
	}

	if oldCfg.Notifier != newCfg.Notifier {
		changed = append(changed, "notifier")
		attrs = append(attrs,
			logx.Int("notifier.workers", newCfg.Notifier.Workers),
			logx.Int("notifier.rate_per_sec", newCfg.Notifier.RatePerSec),
		)
	}

	if !reflect.DeepEqual(oldCfg.Statics, newCfg.Statics) {
		changed = append(changed, "statics")
		attrs = append(attrs,
			logx.Int("statics.weekly", len(newCfg.Statics.Weekly)),
			logx.Int("statics.world_names", len(newCfg.Statics.WorldNames)),
		)
	}

	if oldCfg.Web != newCfg.Web {
		changed = append(changed, "web")
		attrs = append(attrs,
			logx.Bool("web.enabled", newCfg.Web.Enabled),
			logx.String("web.addr", newCfg.Web.Addr),
		)
	}

	return changed, attrs
}
