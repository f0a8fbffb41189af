package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"bosswatch/internal/schedule"
	"bosswatch/internal/sheet"
	"bosswatch/internal/timeparse"
	"bosswatch/pkg/logx"
)

var bkk = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		panic(err)
	}
	return loc
}()

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, bkk)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

type fakeSource struct {
	titles []string
	rows   [][]string
	err    error
	calls  int
}

func (f *fakeSource) Worksheets(ctx context.Context) ([]string, error) {
	if f.err != nil {
		f.calls++
		return nil, f.err
	}
	return f.titles, nil
}

func (f *fakeSource) Values(ctx context.Context, worksheet, a1Range string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a1Range == "A1:Z1" {
		if len(f.rows) == 0 {
			return nil, nil
		}
		return f.rows[:1], nil
	}
	return f.rows, nil
}

var testHeader = []string{"level", "name", "location", "kill_time", "next_spawn",
	"date_kill", "date_spawn", "spawn_type", "spawn_detail", "note", "kill_dt"}

func testConfig() Config {
	cfg := Config{
		Weekly: map[string][]schedule.WeekdayTime{
			"Roderick": {{Day: time.Friday, At: timeparse.TimeOfDay{Hour: 18}}},
		},
		WorldNames: []string{"Latan", "Parto", "Nedra"},
		WorldTimes: []timeparse.TimeOfDay{{Hour: 10}, {Hour: 19}},
		Aliases:    map[string]string{"Partò": "Parto"},
	}
	cfg.ReadRange = "A1:K2000"
	cfg.FallbackWorksheet = "Boss Tracker"
	return cfg
}

func TestBuildStaticOnlyOnFetchFailure(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("quota exceeded")}
	retry := sheet.RetryPolicy{Attempts: 3, Delay: time.Second, Sleep: func(time.Duration) {}}
	b := NewBuilder(testConfig(), src, retry, logx.Nop())

	now := at(t, "2025-03-10 09:00") // Monday
	got := b.Build(context.Background(), now)

	// 1 weekly + 3 world bosses, all static.
	if len(got) != 4 {
		t.Fatalf("got %d occurrences, want 4: %+v", len(got), got)
	}
	if src.calls != 3 {
		t.Fatalf("fetch attempts = %d, want 3", src.calls)
	}
	for _, o := range got {
		if o.Origin != OriginStatic {
			t.Fatalf("unexpected origin %q after degrade", o.Origin)
		}
		if !o.At.After(now) {
			t.Fatalf("non-future occurrence %v", o.At)
		}
	}
}

func TestBuildWorldBossesShareDailyInstant(t *testing.T) {
	t.Parallel()
	b := NewBuilder(testConfig(), nil, sheet.RetryPolicy{}, logx.Nop())
	now := at(t, "2025-03-10 12:00") // between 10:00 and 19:00
	got := b.Build(context.Background(), now)

	want := at(t, "2025-03-10 19:00")
	worlds := 0
	for _, o := range got {
		if o.World {
			worlds++
			if !o.At.Equal(want) {
				t.Fatalf("world boss %s at %v, want %v", o.Name, o.At, want)
			}
		}
	}
	if worlds != 3 {
		t.Fatalf("world occurrences = %d, want 3", worlds)
	}
}

func TestBuildSkipsWorldNamedSheetRows(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		titles: []string{"boss_timer"},
		rows: [][]string{
			testHeader,
			// A stale sheet row for a world boss (misspelled, tomorrow 19:00):
			// must be ignored in favour of the static daily table.
			{"60", "Partò", "ruins", "", "19:00", "", "2025-03-11", "interval", "8 hours", "", ""},
		},
	}
	b := NewBuilder(testConfig(), src, sheet.RetryPolicy{Attempts: 1}, logx.Nop())
	now := at(t, "2025-03-10 12:00")
	got := b.Build(context.Background(), now)

	for _, o := range got {
		if o.Name == "Parto" && !o.At.Equal(at(t, "2025-03-10 19:00")) {
			t.Fatalf("world boss resolved from sheet row: %+v", o)
		}
	}
}

func TestBuildDedupFirstWins(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		titles: []string{"boss_timer"},
		rows: [][]string{
			testHeader,
			{"50", "Grent", "", "", "14:00", "", "2025-03-10", "interval", "", "", ""},
			{"55", "Grent", "north", "", "14:00", "", "2025-03-10", "interval", "", "", ""},
		},
	}
	b := NewBuilder(testConfig(), src, sheet.RetryPolicy{Attempts: 1}, logx.Nop())
	now := at(t, "2025-03-10 09:00")
	got := b.Build(context.Background(), now)

	count := 0
	for _, o := range got {
		if o.Name == "Grent" {
			count++
			if o.Level != "50" {
				t.Fatalf("later duplicate won: %+v", o)
			}
		}
	}
	if count != 1 {
		t.Fatalf("Grent occurrences = %d, want 1", count)
	}
}

func TestBuildSortedAscendingAndFuture(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		titles: []string{"boss_timer"},
		rows: [][]string{
			testHeader,
			{"", "Early", "", "", "10:30", "", "2025-03-10", "", "", "", ""},
			{"", "Late", "", "", "23:00", "", "2025-03-10", "", "", "", ""},
			{"", "Past", "", "", "08:00", "", "2025-03-10", "", "", "", ""},
			{"", "", "", "", "12:00", "", "2025-03-10", "", "", "", ""},
			{"", "N/A", "", "", "12:00", "", "2025-03-10", "", "", "", ""},
		},
	}
	b := NewBuilder(testConfig(), src, sheet.RetryPolicy{Attempts: 1}, logx.Nop())
	now := at(t, "2025-03-10 09:00")
	got := b.Build(context.Background(), now)

	for i := 1; i < len(got); i++ {
		if got[i].At.Before(got[i-1].At) {
			t.Fatalf("roster not sorted: %v before %v", got[i].At, got[i-1].At)
		}
	}
	for _, o := range got {
		if o.Name == "Past" {
			t.Fatalf("past 'other'-type occurrence kept without date rolling: %+v", o)
		}
		if o.Name == "" || o.Name == "N/A" {
			t.Fatalf("nameless row kept: %+v", o)
		}
	}
}

func TestBuildIntervalRowWithoutPartsUsesAnchor(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		titles: []string{"boss_timer"},
		rows: [][]string{
			testHeader,
			{"", "Verak", "", "", "", "", "", "interval", "6 hours", "", "2025-03-10 05:00"},
		},
	}
	b := NewBuilder(testConfig(), src, sheet.RetryPolicy{Attempts: 1}, logx.Nop())
	now := at(t, "2025-03-10 09:00")
	got := b.Build(context.Background(), now)

	for _, o := range got {
		if o.Name == "Verak" {
			if want := at(t, "2025-03-10 11:00"); !o.At.Equal(want) {
				t.Fatalf("Verak at %v, want anchor+6h %v", o.At, want)
			}
			return
		}
	}
	t.Fatal("Verak not in roster")
}
