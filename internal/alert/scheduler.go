package alert

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bosswatch/internal/notify"
	"bosswatch/internal/roster"
	"bosswatch/pkg/logx"
)

// RosterSource produces the occurrence list for a tick.
type RosterSource interface {
	Build(ctx context.Context, now time.Time) []roster.Occurrence
}

// Service drives the alert tick. All fired-set mutation happens inside the
// tick body; cron fires each @every entry on its own goroutine, so tickMu is
// what keeps the fired set single-writer.
type Service struct {
	src  RosterSource
	sink notify.Sink
	log  logx.Logger

	state *State
	// tickMu guards the tick body. A firing that arrives while a tick is
	// still running (a fetch outlasting the period) is dropped, never queued:
	// queued ticks would run back to back and could outlive Stop.
	tickMu sync.Mutex

	mu       sync.Mutex
	cfg      Config
	c        *cron.Cron
	snapshot []roster.Occurrence
	runCtx   context.Context
}

func New(cfg Config, src RosterSource, sink notify.Sink, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{src: src, sink: sink, log: log, state: NewState()}
	s.applyLocked(cfg)
	return s
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = time.Minute
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultThresholds
	}
	for i := range cfg.Thresholds {
		if cfg.Thresholds[i].Window <= 0 {
			cfg.Thresholds[i].Window = 75 * time.Second
		}
	}
	if cfg.PruneAfter <= 0 {
		cfg.PruneAfter = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s.cfg = cfg
}

// Apply swaps the runtime configuration. A changed tick period restarts the
// cron entry.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldTick := s.cfg.TickEvery
	s.applyLocked(cfg)
	if s.c != nil && s.cfg.TickEvery != oldTick {
		s.c.Stop()
		s.c = nil
		s.startCronLocked(s.runCtx)
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.runCtx = ctx
	s.startCronLocked(ctx)

	// First evaluation right away; the cron entry only fires after one full
	// period.
	go s.Tick(ctx)
}

func (s *Service) startCronLocked(ctx context.Context) {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.TickEvery), func() { s.Tick(ctx) })
	if err != nil {
		s.log.Error("cannot register tick entry", logx.Err(err))
		return
	}
	c.Start()
	s.c = c
	s.log.Info("alert loop started", logx.Duration("tick", s.cfg.TickEvery))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.log.Warn("alert loop stop interrupted", logx.Err(ctx.Err()))
	}
}

// Roster returns the cached occurrence list from the latest tick.
func (s *Service) Roster() []roster.Occurrence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]roster.Occurrence(nil), s.snapshot...)
}

// Tick runs one full evaluation cycle. A panicking tick is logged and
// skipped; the next tick starts from clean state. A firing that overlaps a
// running tick returns immediately.
func (s *Service) Tick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.log.Debug("previous tick still running; skipping this firing")
		return
	}
	defer s.tickMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in alert tick",
				logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	now := cfg.Now()
	occ := s.src.Build(ctx, now)

	s.mu.Lock()
	s.snapshot = occ
	s.mu.Unlock()

	if n := s.state.Prune(now, cfg.PruneAfter); n > 0 {
		s.log.Debug("pruned fired keys", logx.Int("count", n))
	}

	s.evalWorld(ctx, cfg, occ, now)
	s.evalSingles(ctx, cfg, occ, now)
}

// withinWindow reports whether the tick lands inside the tolerance window
// around the threshold crossing for an occurrence `until` away.
func withinWindow(until time.Duration, th Threshold) bool {
	diff := until - th.Lead
	if diff < 0 {
		diff = -diff
	}
	return diff <= th.Window
}

// evalWorld fires one composite alert per complete world group at the most
// urgent threshold. Partial groups (member misaligned by a stale source) are
// skipped entirely.
func (s *Service) evalWorld(ctx context.Context, cfg Config, occ []roster.Occurrence, now time.Time) {
	urgent := mostUrgent(cfg.Thresholds)
	if urgent < 0 || len(cfg.WorldNames) == 0 {
		return
	}
	th := cfg.Thresholds[urgent]

	groups := map[string][]roster.Occurrence{}
	for _, o := range occ {
		if o.World {
			k := o.At.Format("200601021504")
			groups[k] = append(groups[k], o)
		}
	}

	for _, group := range groups {
		if !completeGroup(group, cfg.WorldNames) {
			continue
		}
		at := group[0].At
		if !withinWindow(at.Sub(now), th) {
			continue
		}
		key := firedKey("world", at, th.Lead)
		if !s.state.Fire(key, at) {
			continue
		}
		// Marked fired before the send: a delivery failure must never turn
		// into a duplicate on a later tick.
		a := worldAlert(group, th, cfg.Mention)
		if err := s.sink.Deliver(ctx, a); err != nil {
			s.log.Warn("world alert delivery failed", logx.Time("at", at), logx.Err(err))
		}
	}
}

func completeGroup(group []roster.Occurrence, want []string) bool {
	if len(group) < len(want) {
		return false
	}
	have := map[string]bool{}
	for _, o := range group {
		have[o.Name] = true
	}
	for _, name := range want {
		if !have[name] {
			return false
		}
	}
	return true
}

// evalSingles walks every non-world occurrence through the full threshold
// ladder.
func (s *Service) evalSingles(ctx context.Context, cfg Config, occ []roster.Occurrence, now time.Time) {
	urgent := mostUrgent(cfg.Thresholds)
	for _, o := range occ {
		if o.World {
			continue
		}
		until := o.At.Sub(now)
		for i, th := range cfg.Thresholds {
			if !withinWindow(until, th) {
				continue
			}
			key := firedKey(o.Name, o.At, th.Lead)
			if !s.state.Fire(key, o.At) {
				continue
			}
			a := singleAlert(o, th, i == urgent, cfg.Mention)
			if err := s.sink.Deliver(ctx, a); err != nil {
				s.log.Warn("alert delivery failed",
					logx.String("boss", o.Name), logx.Time("at", o.At), logx.Err(err))
			}
		}
	}
}
