package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Sheet    SheetConfig    `json:"sheet"`
	Alerts   AlertsConfig   `json:"alerts"`
	Notifier NotifierConfig `json:"notifier"`
	Statics  StaticsConfig  `json:"statics"`
	Web      WebConfig      `json:"web"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SheetConfig points at the spreadsheet that carries the tracker rows.
type SheetConfig struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	APIKey        string `json:"api_key"`
	// BaseURL overrides the Sheets API endpoint; used in tests.
	BaseURL           string `json:"base_url,omitempty"`
	FallbackWorksheet string `json:"fallback_worksheet,omitempty"`
	ReadRange         string `json:"read_range,omitempty"`
	FetchAttempts     int    `json:"fetch_attempts,omitempty"`
	// FetchDelay and Timeout are Go duration strings.
	FetchDelay string `json:"fetch_delay,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

type ThresholdConfig struct {
	Minutes       int `json:"minutes"`
	WindowSeconds int `json:"window_seconds,omitempty"`
}

type AlertsConfig struct {
	// Timezone is the IANA zone all schedule resolution happens in.
	Timezone string `json:"timezone,omitempty"`
	// TickEvery is a Go duration string; default "60s".
	TickEvery  string            `json:"tick_every,omitempty"`
	Thresholds []ThresholdConfig `json:"thresholds,omitempty"`
	// Destinations maps an alert route (worksheet title or "static") to a
	// chat id.
	Destinations  map[string]int64 `json:"destinations,omitempty"`
	DefaultChatID int64            `json:"default_chat_id"`
	Mention       string           `json:"mention,omitempty"`
}

type NotifierConfig struct {
	Workers    int `json:"workers,omitempty"`
	QueueSize  int `json:"queue_size,omitempty"`
	RatePerSec int `json:"rate_per_sec,omitempty"`
	RetryMax   int `json:"retry_max,omitempty"`
	// RetryBase and RetryMaxDelay are Go duration strings.
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// StaticsConfig overrides the built-in recurring tables. Empty sections keep
// the defaults.
type StaticsConfig struct {
	// Weekly maps a boss name to slots like "Monday 10:30".
	Weekly map[string][]string `json:"weekly,omitempty"`
	// WorldNames is the co-occurring world set; WorldTimes their shared
	// daily clock times ("10:00").
	WorldNames []string `json:"world_names,omitempty"`
	WorldTimes []string `json:"world_times,omitempty"`
	// Aliases maps sheet spellings to canonical names.
	Aliases map[string]string `json:"aliases,omitempty"`
	// WeekdayAliases extends weekday vocabulary for spawn_detail parsing
	// (e.g. Thai day names).
	WeekdayAliases map[string]string `json:"weekday_aliases,omitempty"`
}

type WebConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}
