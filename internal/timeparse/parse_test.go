package timeparse

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want TimeOfDay
		ok   bool
	}{
		{raw: "18:00", want: TimeOfDay{Hour: 18}, ok: true},
		{raw: " 9:05 ", want: TimeOfDay{Hour: 9, Minute: 5}, ok: true},
		{raw: "10.30", want: TimeOfDay{Hour: 10, Minute: 30}, ok: true},
		{raw: "23:59:59", want: TimeOfDay{Hour: 23, Minute: 59, Second: 59}, ok: true},
		{raw: "24:00", ok: false},
		{raw: "12:60", ok: false},
		{raw: "12:00:61", ok: false},
		{raw: "noon", ok: false},
		{raw: "", ok: false},
		{raw: "-", ok: false},
		{raw: "#VALUE!", ok: false},
		{raw: "N/A", ok: false},
		{raw: "null", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseTimeOfDay(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseTimeOfDay(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseTimeOfDay(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string // YYYY-MM-DD
		ok   bool
	}{
		{name: "iso", raw: "2025-03-14", want: "2025-03-14", ok: true},
		{name: "dmy slash", raw: "14/03/2025", want: "2025-03-14", ok: true},
		{name: "dmy dash", raw: "14-03-2025", want: "2025-03-14", ok: true},
		{name: "ymd slash", raw: "2025/03/14", want: "2025-03-14", ok: true},
		// Serial 45730 is 2025-03-14 relative to the 1899-12-30 epoch.
		{name: "serial", raw: "45730", want: "2025-03-14", ok: true},
		{name: "serial fraction ignored", raw: "45730.75", want: "2025-03-14", ok: true},
		{name: "sentinel", raw: "NA", ok: false},
		{name: "garbage", raw: "next tuesday", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Fatalf("ParseDate(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseInstantTextFormats(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	want := time.Date(2025, 3, 14, 18, 30, 0, 0, loc)
	for _, raw := range []string{
		"14/03/2025, 18:30:00",
		"14/03/2025 18:30:00",
		"14/03/2025, 18:30",
		"14/03/2025 18:30",
		"2025-03-14 18:30:00",
		"2025-03-14 18:30",
	} {
		got, ok := ParseInstant(raw, loc)
		if !ok {
			t.Fatalf("ParseInstant(%q) not ok", raw)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseInstant(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSerialAndTextAgreeWithinAMinute(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	// 45730.770833... is 2025-03-14 18:30 as a fractional day serial.
	fromSerial, ok := ParseInstant("45730.7708333", loc)
	if !ok {
		t.Fatal("serial instant not ok")
	}
	fromText, ok := ParseInstant("2025-03-14 18:30", loc)
	if !ok {
		t.Fatal("text instant not ok")
	}
	if !NearSameMinute(fromSerial, fromText, 1) {
		t.Fatalf("serial %v and text %v differ by more than a minute", fromSerial, fromText)
	}
}

func TestNearSameMinute(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b time.Time
		tol  int
		want bool
	}{
		{name: "identical", a: base, b: base, tol: 2, want: true},
		{name: "under tolerance", a: base, b: base.Add(90 * time.Second), tol: 2, want: true},
		{name: "exactly at tolerance", a: base, b: base.Add(2 * time.Minute), tol: 2, want: true},
		{name: "over tolerance", a: base, b: base.Add(3 * time.Minute), tol: 2, want: false},
		{name: "symmetric", a: base.Add(3 * time.Minute), b: base, tol: 2, want: false},
		{name: "zero a", a: time.Time{}, b: base, tol: 2, want: false},
		{name: "zero b", a: base, b: time.Time{}, tol: 2, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := NearSameMinute(tt.a, tt.b, tt.tol); got != tt.want {
				t.Fatalf("NearSameMinute = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	d, ok := ParseDate("2025-03-14")
	if !ok {
		t.Fatal("date not ok")
	}
	got := Combine(d, TimeOfDay{Hour: 19, Minute: 5}, loc)
	want := time.Date(2025, 3, 14, 19, 5, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("Combine = %v, want %v", got, want)
	}
}
