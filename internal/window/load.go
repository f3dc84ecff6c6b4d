package window

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thinkwright/quickcal/internal/calendar"
	"github.com/thinkwright/quickcal/internal/vault"
)

// Loader is the part of the diary binding the window needs.
type Loader interface {
	Resolve(date time.Time) *vault.Entry
	LoadContent(e *vault.Entry) string
}

// MaxConcurrentReads bounds the per-day goroutines of one batch.
const MaxConcurrentReads = 16

// LoadMonths builds and fills the grids for months. Every day of every month
// is resolved and read as one unordered batch; it returns once all settle.
func LoadMonths(ctx context.Context, l Loader, months []calendar.Month, weekStart time.Weekday, now time.Time) ([]calendar.MonthData, error) {
	out := make([]calendar.MonthData, len(months))
	for i, mo := range months {
		out[i] = calendar.MonthData{Month: mo, Days: calendar.Grid(mo, weekStart, now)}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentReads)
	for mi := range out {
		for di := range out[mi].Days {
			d := &out[mi].Days[di]
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if e := l.Resolve(d.Date); e != nil {
					d.File = e
					d.Content = l.LoadContent(e)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load runs req through LoadMonths.
func Load(ctx context.Context, l Loader, req Request, weekStart time.Weekday, now time.Time) Result {
	data, err := LoadMonths(ctx, l, req.Months, weekStart, now)
	return Result{Request: req, Data: data, Err: err}
}
