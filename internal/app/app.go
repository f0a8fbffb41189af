// Package app wires the services together: config, logging, sheet source,
// roster builder, alert loop, notifier, chat transport and the health
// endpoint.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bosswatch/internal/alert"
	"bosswatch/internal/config"
	"bosswatch/internal/notify"
	"bosswatch/internal/roster"
	"bosswatch/internal/sheet"
	"bosswatch/internal/transport"
	"bosswatch/internal/transport/telegram"
	"bosswatch/internal/web"
	"bosswatch/pkg/logx"
)

// rosterSource lets the alert loop keep a stable handle while config reloads
// swap the underlying builder.
type rosterSource struct {
	v atomic.Value // stores *roster.Builder
}

func (r *rosterSource) set(b *roster.Builder) { r.v.Store(b) }

func (r *rosterSource) Build(ctx context.Context, now time.Time) []roster.Occurrence {
	b, _ := r.v.Load().(*roster.Builder)
	if b == nil {
		return nil
	}
	return b.Build(ctx, now)
}

type App struct {
	cfgPath string

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	adapter transport.Adapter
	src     *rosterSource
	notif   *notify.Service
	alerts  *alert.Service
	web     *web.Server

	updates chan transport.Update

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogging(cfg))
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logSvc.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	loc, err := mapLocation(cfg)
	if err != nil {
		return nil, err
	}

	src := &rosterSource{}
	builder, err := buildRoster(cfg, logSvc.Logger())
	if err != nil {
		return nil, err
	}
	src.set(builder)

	ncfg, err := mapNotifier(cfg)
	if err != nil {
		return nil, err
	}
	notifSvc := notify.New(ncfg, ad, logSvc.Logger().With(logx.String("comp", "notify")))

	rc, err := mapRoster(cfg)
	if err != nil {
		return nil, err
	}
	acfg, err := mapAlerts(cfg, rc, loc)
	if err != nil {
		return nil, err
	}
	alertSvc := alert.New(acfg, src, notifSvc, logSvc.Logger().With(logx.String("comp", "alert")))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		adapter: ad,
		src:     src,
		notif:   notifSvc,
		alerts:  alertSvc,
		updates: make(chan transport.Update, 256),
	}
	a.web = web.New(web.Config{
		Enabled: cfg.Web.Enabled,
		Addr:    cfg.Web.Addr,
	}, a.webStatus(cfg, rc.FallbackWorksheet), logSvc.Logger().With(logx.String("comp", "web")))

	return a, nil
}

// webStatus exposes the live services to the health endpoint. Both the
// initial wiring and web config reloads build Status through here so the
// endpoint never loses a getter.
func (a *App) webStatus(cfg *config.Config, worksheet string) web.Status {
	return web.Status{
		SpreadsheetID: cfg.Sheet.SpreadsheetID,
		Worksheet:     worksheet,
		RosterSize:    func() int { return len(a.alerts.Roster()) },
		LastAlert: func() (time.Time, bool) {
			hist := a.notif.Snapshot()
			if len(hist) == 0 {
				return time.Time{}, false
			}
			return hist[len(hist)-1].At, true
		},
	}
}

// buildRoster assembles a builder for the current config: a live Sheets
// client when credentials are present, static-only otherwise.
func buildRoster(cfg *config.Config, log logx.Logger) (*roster.Builder, error) {
	rc, err := mapRoster(cfg)
	if err != nil {
		return nil, err
	}
	retry, err := mapRetry(cfg)
	if err != nil {
		return nil, err
	}

	var src sheet.Source
	if strings.TrimSpace(cfg.Sheet.SpreadsheetID) != "" {
		cc, err := mapSheetClient(cfg)
		if err != nil {
			return nil, err
		}
		client, err := sheet.NewClient(cc)
		if err != nil {
			return nil, err
		}
		src = client
	} else {
		log.Warn("no spreadsheet configured; running on static tables only")
	}

	return roster.NewBuilder(rc, src, retry, log.With(logx.String("comp", "roster"))), nil
}

func (a *App) validateConfig(_ context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	loc, err := mapLocation(cfg)
	if err != nil {
		return err
	}
	rc, err := mapRoster(cfg)
	if err != nil {
		return err
	}
	if _, err := mapRetry(cfg); err != nil {
		return err
	}
	if _, err := mapSheetClient(cfg); err != nil {
		return err
	}
	if _, err := mapNotifier(cfg); err != nil {
		return err
	}
	if _, err := mapAlerts(cfg, rc, loc); err != nil {
		return err
	}
	return nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(a.validateConfig)

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}
	a.notif.Start(runCtx)
	a.alerts.Start(runCtx)
	a.web.Start(runCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.dispatchLoop(runCtx)
	}()

	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(runCtx, sub)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(runCtx)
	}()

	a.log.Info("app started")
	return nil
}

// reloadLoop applies validated config updates to the running services.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs := config.SummarizeConfigChange(lastApplied, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			lastApplied = newCfg
			a.applyReload(ctx, newCfg, sections)

			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Info("config reloaded", fields...)
		}
	}
}

func (a *App) applyReload(ctx context.Context, cfg *config.Config, sections []string) {
	changed := map[string]bool{}
	for _, s := range sections {
		changed[s] = true
	}

	if changed["telegram"] {
		a.log.Warn("telegram config changed; restart required for changes to take effect")
	}

	if changed["logging"] {
		a.logs.Apply(mapLogging(cfg))
	}

	// The validator already accepted this config, so mapping errors here are
	// unexpected; keep the previous component config when one slips through.
	if changed["sheet"] || changed["statics"] {
		builder, err := buildRoster(cfg, a.logs.Logger())
		if err != nil {
			a.log.Warn("invalid roster config; keeping previous", logx.Err(err))
		} else {
			a.src.set(builder)
		}
	}

	if changed["notifier"] || changed["alerts"] {
		if ncfg, err := mapNotifier(cfg); err != nil {
			a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
		} else {
			a.notif.Apply(ncfg)
		}
	}

	if changed["alerts"] || changed["statics"] {
		loc, err := mapLocation(cfg)
		if err == nil {
			var rc roster.Config
			rc, err = mapRoster(cfg)
			if err == nil {
				var acfg alert.Config
				acfg, err = mapAlerts(cfg, rc, loc)
				if err == nil {
					a.alerts.Apply(acfg)
				}
			}
		}
		if err != nil {
			a.log.Warn("invalid alerts config; keeping previous", logx.Err(err))
		}
	}

	if changed["web"] {
		stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		a.web.Stop(stopCtx)
		cancel()
		worksheet := cfg.Sheet.FallbackWorksheet
		if rc, err := mapRoster(cfg); err == nil {
			worksheet = rc.FallbackWorksheet
		}
		a.web = web.New(web.Config{Enabled: cfg.Web.Enabled, Addr: cfg.Web.Addr},
			a.webStatus(cfg, worksheet),
			a.logs.Logger().With(logx.String("comp", "web")))
		a.web.Start(ctx)
	}
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	if a.cancel != nil {
		a.cancel()
	}

	// Bound each shutdown step so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context)) {
		if dl, ok := ctx.Deadline(); ok {
			if rem := time.Until(dl); rem > 0 && rem < max {
				max = rem
			}
		}
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		start := time.Now()
		fn(stepCtx)
		a.log.Debug("stop step done", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	// Alerts first so nothing new enters the notify queue, then drain the
	// queue, then tear down the transport.
	step("alerts", 3*time.Second, a.alerts.Stop)
	step("notify", 5*time.Second, a.notif.Stop)
	step("telegram", 3*time.Second, func(c context.Context) { _ = a.adapter.Stop(c) })
	step("web", 2*time.Second, a.web.Stop)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("stop timed out waiting for loops")
	}

	_ = a.logs.Close()
	return nil
}
