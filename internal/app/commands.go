package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bosswatch/internal/roster"
	"bosswatch/internal/transport"
	"bosswatch/pkg/logx"
)

const nextListCap = 25

func (a *App) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-a.updates:
			if up.Kind != transport.UpdateMessage || up.Message == nil {
				continue
			}
			a.handleMessage(ctx, up.Message)
		}
	}
}

// parseCommand extracts the bare command name from "/next@SomeBot arg",
// returning "" for non-command text.
func parseCommand(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

func (a *App) handleMessage(ctx context.Context, m *transport.Message) {
	var reply string
	switch parseCommand(m.Text) {
	case "ping":
		reply = "pong"
	case "next":
		reply = a.renderNext()
	default:
		return
	}

	to := transport.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID}
	if _, err := a.adapter.SendText(ctx, to, reply, nil); err != nil {
		a.log.Warn("command reply failed",
			logx.Int64("chat_id", m.ChatID), logx.Err(err))
	}
}

func (a *App) renderNext() string {
	return renderUpcoming(a.alerts.Roster(), time.Now())
}

// renderUpcoming lists upcoming spawns, collapsing each world group (same
// spawn instant) into a single line. World members are merged by instant
// rather than adjacency, so a non-world boss landing on the same minute can't
// split the group line.
func renderUpcoming(occ []roster.Occurrence, now time.Time) string {
	if len(occ) == 0 {
		return "No upcoming spawns known yet."
	}

	type line struct {
		at    time.Time
		names []string
	}
	var (
		lines  []*line
		worlds = map[int64]*line{}
	)
	for _, o := range occ {
		if o.World {
			if l, ok := worlds[o.At.Unix()]; ok {
				l.names = append(l.names, o.Name)
				continue
			}
			l := &line{at: o.At, names: []string{o.Name}}
			worlds[o.At.Unix()] = l
			lines = append(lines, l)
			continue
		}
		lines = append(lines, &line{at: o.At, names: []string{o.Name}})
	}

	var b strings.Builder
	b.WriteString("Upcoming spawns:\n")
	for i, l := range lines {
		if i >= nextListCap {
			break
		}
		fmt.Fprintf(&b, "%s — %s (%s)\n",
			strings.Join(l.names, " + "), l.at.Format("Mon 15:04"), untilLabel(l.at.Sub(now)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func untilLabel(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h > 0 {
		return fmt.Sprintf("in %dh%02dm", h, m)
	}
	return fmt.Sprintf("in %dm", m)
}
