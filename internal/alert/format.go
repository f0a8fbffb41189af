package alert

import (
	"fmt"
	"time"

	"bosswatch/internal/notify"
	"bosswatch/internal/roster"
)

func leadLabel(lead time.Duration) string {
	if lead >= time.Hour && lead%time.Hour == 0 {
		h := int(lead / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d min", int(lead.Minutes()))
}

// singleAlert builds the notification for one non-world occurrence.
func singleAlert(o roster.Occurrence, th Threshold, urgent bool, mention string) notify.Alert {
	a := notify.Alert{
		Route: string(o.Origin),
		Title: fmt.Sprintf("%s spawns in %s (%s)", o.Name, leadLabel(th.Lead), o.At.Format("15:04")),
	}
	if o.Level != "" {
		a.Lines = append(a.Lines, "Level: "+o.Level)
	}
	if o.Location != "" {
		a.Lines = append(a.Lines, "Location: "+o.Location)
	}
	if urgent {
		a.Priority = 9
		a.Mention = mention
	} else {
		a.Priority = 3
	}
	return a
}

// worldAlert builds the single composite notification for a complete world
// group. The composite always carries the mention directive.
func worldAlert(group []roster.Occurrence, th Threshold, mention string) notify.Alert {
	at := group[0].At
	a := notify.Alert{
		Route:    string(group[0].Origin),
		Title:    fmt.Sprintf("World bosses spawn in %s (%s)", leadLabel(th.Lead), at.Format("15:04")),
		Priority: 9,
		Mention:  mention,
	}
	for _, o := range group {
		a.Lines = append(a.Lines, "• "+o.Name)
	}
	return a
}
