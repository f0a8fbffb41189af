package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bosswatch/pkg/logx"
)

func TestHealthz(t *testing.T) {
	t.Parallel()
	status := Status{
		SpreadsheetID: "sheet-123",
		Worksheet:     "boss_timer",
		RosterSize:    func() int { return 7 },
		LastAlert:     func() (time.Time, bool) { return time.Time{}, false },
	}
	s := New(Config{Enabled: true, Addr: ":0"}, status, logx.Nop())
	s.started = time.Now()

	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["ok"] != true {
		t.Fatalf("ok = %v", payload["ok"])
	}
	if payload["spreadsheet_id"] != "sheet-123" {
		t.Fatalf("spreadsheet_id = %v", payload["spreadsheet_id"])
	}
	if payload["roster_size"] != float64(7) {
		t.Fatalf("roster_size = %v", payload["roster_size"])
	}
	if _, present := payload["last_alert"]; present {
		t.Fatal("last_alert present without any alert sent")
	}
}

func TestBanner(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true}, Status{}, logx.Nop())
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty banner")
	}
}
