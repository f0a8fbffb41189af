package sheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"bosswatch/pkg/logx"
)

func TestResolveColumns(t *testing.T) {
	t.Parallel()
	header := []string{"Level", "  Name ", "Location", "kill_time", "NEXT_SPAWN",
		"date_kill", "Date_Spawn", "spawn  type?", "spawn_detail", "note", "kill datetime"}
	cols := ResolveColumns(header)

	tests := []struct {
		field Field
		idx   int
		ok    bool
	}{
		{FieldLevel, 0, true},
		{FieldName, 1, true},
		{FieldLocation, 2, true},
		{FieldKillTime, 3, true},
		{FieldNextSpawn, 4, true},
		{FieldDateKill, 5, true},
		{FieldDateSpawn, 6, true},
		{FieldSpawnType, 0, false}, // "spawn  type?" doesn't alias spawn_type
		{FieldSpawnDetail, 8, true},
		{FieldNote, 9, true},
		{FieldKillDT, 10, true},
	}
	for _, tt := range tests {
		idx, ok := cols[tt.field]
		if ok != tt.ok {
			t.Fatalf("field %s resolved=%v, want %v", tt.field, ok, tt.ok)
		}
		if ok && idx != tt.idx {
			t.Fatalf("field %s index=%d, want %d", tt.field, idx, tt.idx)
		}
	}
}

func TestResolveColumnsThaiAliases(t *testing.T) {
	t.Parallel()
	header := []string{"เลเวล", "ชื่อ", "สถานที่", "ประเภท", "รายละเอียด"}
	cols := ResolveColumns(header)
	if !cols.Has(FieldLevel, FieldName, FieldLocation, FieldSpawnType, FieldSpawnDetail) {
		t.Fatalf("thai aliases not resolved: %v", cols)
	}
}

func TestColumnsCell(t *testing.T) {
	t.Parallel()
	cols := Columns{FieldName: 1, FieldNote: 5}
	row := []string{"55", "Ringor", "plains"}
	if got := cols.Cell(row, FieldName); got != "Ringor" {
		t.Fatalf("Cell(name) = %q", got)
	}
	if got := cols.Cell(row, FieldNote); got != "" {
		t.Fatalf("Cell past ragged row end = %q, want empty", got)
	}
	if got := cols.Cell(row, FieldLevel); got != "" {
		t.Fatalf("Cell for unresolved field = %q, want empty", got)
	}
}

// fakeSource serves canned worksheets/values for selection and retry tests.
type fakeSource struct {
	titles  []string
	headers map[string][]string
	err     error
}

func (f *fakeSource) Worksheets(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.titles, nil
}

func (f *fakeSource) Values(ctx context.Context, worksheet, a1Range string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.headers[worksheet]
	if !ok {
		return nil, nil
	}
	return [][]string{h}, nil
}

func TestSelectWorksheetByHeaderScan(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		titles: []string{"notes", "boss_timer", "Boss Tracker"},
		headers: map[string][]string{
			"notes":      {"a", "b"},
			"boss_timer": {"name", "spawn_type", "next_spawn", "date_spawn", "kill_dt"},
		},
	}
	got, err := SelectWorksheet(context.Background(), src, "Boss Tracker", logx.Nop())
	if err != nil {
		t.Fatalf("SelectWorksheet: %v", err)
	}
	if got != "boss_timer" {
		t.Fatalf("selected %q, want boss_timer", got)
	}
}

func TestSelectWorksheetFallback(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		titles:  []string{"notes", "Boss Tracker"},
		headers: map[string][]string{"notes": {"a"}, "Boss Tracker": {"name", "time"}},
	}
	got, err := SelectWorksheet(context.Background(), src, "Boss Tracker", logx.Nop())
	if err != nil {
		t.Fatalf("SelectWorksheet: %v", err)
	}
	if got != "Boss Tracker" {
		t.Fatalf("selected %q, want fallback", got)
	}

	src.titles = []string{"notes"}
	if _, err := SelectWorksheet(context.Background(), src, "Boss Tracker", logx.Nop()); !errors.Is(err, ErrNoWorksheet) {
		t.Fatalf("err = %v, want ErrNoWorksheet", err)
	}
}

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		var slept []time.Duration
		p := RetryPolicy{Attempts: 3, Delay: 2 * time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if calls != 3 {
			t.Fatalf("calls = %d, want 3", calls)
		}
		if len(slept) != 2 || slept[0] != 2*time.Second {
			t.Fatalf("slept = %v", slept)
		}
	})

	t.Run("returns last error on exhaustion", func(t *testing.T) {
		p := RetryPolicy{Attempts: 2, Sleep: func(time.Duration) {}}
		want := errors.New("down")
		calls := 0
		err := p.Do(context.Background(), func() error { calls++; return want })
		if !errors.Is(err, want) {
			t.Fatalf("err = %v, want %v", err, want)
		}
		if calls != 2 {
			t.Fatalf("calls = %d, want 2", calls)
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := RetryPolicy{Attempts: 3, Sleep: func(time.Duration) {}}
		if err := p.Do(ctx, func() error { return errors.New("x") }); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}
