package sheet

import (
	"context"
	"time"

	"bosswatch/pkg/logx"
)

// Source is the data-source contract the roster consumes. The production
// implementation is Client; tests inject fakes.
type Source interface {
	// Worksheets lists the spreadsheet's tab titles in sheet order.
	Worksheets(ctx context.Context) ([]string, error)
	// Values reads a cell range ("A1:K2000") from one tab. Rows may be
	// ragged; trailing empty cells are not padded.
	Values(ctx context.Context, worksheet, a1Range string) ([][]string, error)
}

// SelectWorksheet scans the spreadsheet for the first tab whose header row
// resolves at least name/spawn_type/next_spawn/date_spawn. When no tab
// qualifies, the configured fallback is used (with a warning) if it exists.
func SelectWorksheet(ctx context.Context, src Source, fallback string, log logx.Logger) (string, error) {
	titles, err := src.Worksheets(ctx)
	if err != nil {
		return "", err
	}

	for _, title := range titles {
		rows, err := src.Values(ctx, title, "A1:Z1")
		if err != nil || len(rows) == 0 {
			continue
		}
		if ResolveColumns(rows[0]).Has(requiredForSelection...) {
			log.Debug("worksheet selected by header scan", logx.String("worksheet", title))
			return title, nil
		}
	}

	for _, title := range titles {
		if title == fallback {
			log.Warn("no worksheet with a complete header; using fallback",
				logx.String("worksheet", fallback))
			return fallback, nil
		}
	}
	return "", ErrNoWorksheet
}

// RetryPolicy bounds the fetch retry loop. Sleep is injectable so tests can
// simulate transient failure without real delay.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Sleep    func(time.Duration)
}

func (p RetryPolicy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

// Do runs fn up to Attempts times, sleeping Delay between failures. The last
// error is returned when all attempts fail.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var last error
	for i := 0; i < p.attempts(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = fn(); last == nil {
			return nil
		}
		if i < p.attempts()-1 && p.Delay > 0 {
			sleep(p.Delay)
		}
	}
	return last
}
