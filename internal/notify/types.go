package notify

import (
	"context"
	"strings"
	"time"
)

// Alert is one rendered-to-be alert message. Route selects the destination
// chat; an unknown route falls back to the default chat.
type Alert struct {
	Route    string
	Title    string
	Lines    []string
	Mention  string
	Priority int // 0 low .. 10 high
}

// Render flattens the alert into the outgoing message text.
func (a Alert) Render() string {
	var b strings.Builder
	b.WriteString(prefixForPriority(a.Priority))
	b.WriteString(a.Title)
	for _, ln := range a.Lines {
		b.WriteString("\n")
		b.WriteString(ln)
	}
	if a.Mention != "" {
		b.WriteString("\n")
		b.WriteString(a.Mention)
	}
	return b.String()
}

func prefixForPriority(p int) string {
	switch {
	case p >= 9:
		return "🚨 "
	case p >= 5:
		return "⚠️ "
	default:
		return "⏰ "
	}
}

// Sink accepts alerts for delivery. The scheduler talks to this interface so
// tests can capture alerts without a chat backend.
type Sink interface {
	Deliver(ctx context.Context, a Alert) error
}

// HistoryItem is one successfully sent alert, kept for status reporting.
type HistoryItem struct {
	At   time.Time
	Text string
}

type Config struct {
	Workers       int
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration

	// Destinations maps an alert route to a chat id. Routes not present fall
	// back to DefaultChatID.
	Destinations  map[string]int64
	DefaultChatID int64
}
