// Package web exposes the small operational HTTP surface: a banner page and
// a JSON health endpoint.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bosswatch/pkg/logx"
)

type Config struct {
	Enabled bool
	Addr    string
}

// Status is the live data the health endpoint reports. Fields are read at
// request time through the getter funcs so the payload always reflects the
// current state.
type Status struct {
	SpreadsheetID string
	Worksheet     string
	RosterSize    func() int
	LastAlert     func() (time.Time, bool)
}

type Server struct {
	cfg     Config
	log     logx.Logger
	status  Status
	started time.Time
	srv     *http.Server
}

func New(cfg Config, status Status, log logx.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{cfg: cfg, log: log, status: status}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("bosswatch is running\n"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		now := time.Now()
		payload := map[string]any{
			"ok":             true,
			"now":            now.Format(time.RFC3339),
			"uptime_sec":     int(now.Sub(s.started).Seconds()),
			"spreadsheet_id": s.status.SpreadsheetID,
			"worksheet":      s.status.Worksheet,
		}
		if s.status.RosterSize != nil {
			payload["roster_size"] = s.status.RosterSize()
		}
		if s.status.LastAlert != nil {
			if at, ok := s.status.LastAlert(); ok {
				payload["last_alert"] = at.Format(time.RFC3339)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})

	return r
}

func (s *Server) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.started = time.Now()
	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		s.log.Info("http server listening", logx.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", logx.Err(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	if s.srv == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("http server shutdown", logx.Err(err))
	}
	s.srv = nil
}
