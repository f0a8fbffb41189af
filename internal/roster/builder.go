package roster

import (
	"context"
	"sort"
	"strings"
	"time"

	"bosswatch/internal/schedule"
	"bosswatch/internal/sheet"
	"bosswatch/internal/timeparse"
	"bosswatch/pkg/logx"
)

// Builder produces one roster per tick. It owns no mutable state beyond its
// wiring; Build is safe to call repeatedly.
type Builder struct {
	cfg   Config
	src   sheet.Source
	retry sheet.RetryPolicy
	log   logx.Logger
}

func NewBuilder(cfg Config, src sheet.Source, retry sheet.RetryPolicy, log logx.Logger) *Builder {
	if cfg.ReadRange == "" {
		cfg.ReadRange = "A1:K2000"
	}
	return &Builder{cfg: cfg, src: src, retry: retry, log: log}
}

// Build merges static and sheet origins into a deduplicated list sorted
// ascending by instant. A failing source degrades to static-only data; Build
// never returns an error to its caller.
func (b *Builder) Build(ctx context.Context, now time.Time) []Occurrence {
	var (
		out  []Occurrence
		seen = map[string]struct{}{}
	)
	add := func(o Occurrence) {
		if !o.At.After(now) {
			return
		}
		k := dedupKey(o.Name, o.At)
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		out = append(out, o)
	}

	// Static origin first, so a conflicting sheet row loses the dedup race.
	for _, o := range b.staticOccurrences(now) {
		add(o)
	}

	if b.src != nil {
		rows, worksheet, err := b.fetch(ctx)
		if err != nil {
			b.log.Warn("sheet fetch failed; using static roster only", logx.Err(err))
		} else {
			b.appendSheet(rows, worksheet, now, add)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	b.log.Debug("roster built", logx.Int("count", len(out)))
	return out
}

func (b *Builder) fetch(ctx context.Context) ([][]string, string, error) {
	var (
		rows      [][]string
		worksheet string
	)
	err := b.retry.Do(ctx, func() error {
		ws, err := sheet.SelectWorksheet(ctx, b.src, b.cfg.FallbackWorksheet, b.log)
		if err != nil {
			return err
		}
		vals, err := b.src.Values(ctx, ws, b.cfg.ReadRange)
		if err != nil {
			return err
		}
		rows, worksheet = vals, ws
		return nil
	})
	return rows, worksheet, err
}

// appendSheet resolves every data row and feeds the results to add. Rows with
// no name, world-tagged names (always computed from the static table), or
// descriptors that cannot resolve are skipped.
func (b *Builder) appendSheet(rows [][]string, worksheet string, now time.Time, add func(Occurrence)) {
	if len(rows) < 2 {
		b.log.Warn("worksheet has no data rows", logx.String("worksheet", worksheet))
		return
	}
	cols := sheet.ResolveColumns(rows[0])
	if !cols.Has(sheet.FieldName) {
		b.log.Warn("worksheet header lacks a name column", logx.String("worksheet", worksheet))
		return
	}

	loc := now.Location()
	for _, row := range rows[1:] {
		name := b.cfg.NormalizeName(cols.Cell(row, sheet.FieldName))
		if name == "" || timeparse.IsSentinel(name) {
			continue
		}
		if b.cfg.IsWorld(name) {
			// World bosses come from the static daily table; a sheet row with
			// the same name would produce a duplicate or conflicting instant.
			continue
		}

		d, ok := b.rowDescriptor(cols, row, loc)
		if !ok {
			continue
		}
		at, ok := schedule.Resolve(d, now)
		if !ok {
			continue
		}
		add(Occurrence{
			Name:     name,
			At:       at,
			Level:    strings.TrimSpace(cols.Cell(row, sheet.FieldLevel)),
			Location: strings.TrimSpace(cols.Cell(row, sheet.FieldLocation)),
			Origin:   Origin(worksheet),
		})
	}
}

// rowDescriptor translates one sheet row into a schedule descriptor based on
// its spawn_type tag.
func (b *Builder) rowDescriptor(cols sheet.Columns, row []string, loc *time.Location) (schedule.Descriptor, bool) {
	spawnType := strings.ToLower(strings.TrimSpace(cols.Cell(row, sheet.FieldSpawnType)))
	detail := strings.TrimSpace(cols.Cell(row, sheet.FieldSpawnDetail))

	switch spawnType {
	case "fixed":
		pairs := schedule.ParseWeeklyPairs(detail, b.cfg.WeekdayAliases)
		if len(pairs) == 0 {
			return schedule.Descriptor{}, false
		}
		return schedule.Descriptor{Kind: schedule.KindFixedWeekly, Pairs: pairs}, true

	case "interval":
		anchor, _ := timeparse.ParseInstant(cols.Cell(row, sheet.FieldKillDT), loc)
		period, _ := schedule.ParsePeriodHours(detail)
		date, hasDate := timeparse.ParseDate(cols.Cell(row, sheet.FieldDateSpawn))
		tod, hasTime := timeparse.ParseTimeOfDay(cols.Cell(row, sheet.FieldNextSpawn))
		if !hasDate && !hasTime {
			return schedule.Descriptor{
				Kind:        schedule.KindInterval,
				Anchor:      anchor,
				PeriodHours: period,
			}, true
		}
		return schedule.Descriptor{
			Kind:        schedule.KindExplicit,
			Date:        date,
			HasDate:     hasDate,
			Time:        tod,
			HasTime:     hasTime,
			Anchor:      anchor,
			PeriodHours: period,
		}, true

	default:
		date, hasDate := timeparse.ParseDate(cols.Cell(row, sheet.FieldDateSpawn))
		tod, hasTime := timeparse.ParseTimeOfDay(cols.Cell(row, sheet.FieldNextSpawn))
		if !hasDate && !hasTime {
			return schedule.Descriptor{}, false
		}
		return schedule.Descriptor{
			Kind:    schedule.KindExplicit,
			Date:    date,
			HasDate: hasDate,
			Time:    tod,
			HasTime: hasTime,
		}, true
	}
}
