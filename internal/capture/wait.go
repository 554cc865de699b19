package capture

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrWaitTimeout means the page never produced card content within the wait
// budget. Distinct from ErrNoCards on a settled page: this one means "gave up
// waiting", not "found nothing".
var ErrWaitTimeout = errors.New("timed out waiting for page content")

const (
	// DefaultWaitCap bounds the whole poll; DefaultWaitInterval is the gap
	// between rechecks while async content loads.
	DefaultWaitCap      = 10 * time.Second
	DefaultWaitInterval = 500 * time.Millisecond
)

// SnapshotSource re-reads the current page DOM. Listing pages fill in
// asynchronously, so a first empty snapshot is not conclusive.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*goquery.Document, error)
}

// Waiter polls a snapshot source until cards appear or the budget runs out.
type Waiter struct {
	Source   SnapshotSource
	Cap      time.Duration
	Interval time.Duration
}

func NewWaiter(src SnapshotSource) *Waiter {
	return &Waiter{Source: src, Cap: DefaultWaitCap, Interval: DefaultWaitInterval}
}

// Wait runs capture passes against fresh snapshots until one finds cards,
// the budget is spent, or ctx is done. Snapshot errors end the wait
// immediately; exhausting the budget returns ErrWaitTimeout, never an empty
// success.
func (w *Waiter) Wait(ctx context.Context, pageURL string) (*Result, error) {
	deadline := time.Now().Add(w.Cap)
	for {
		doc, err := w.Source.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		res, err := Cards(doc, pageURL, time.Now())
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNoCards) {
			return nil, err
		}
		if time.Now().Add(w.Interval).After(deadline) {
			return nil, ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.Interval):
		}
	}
}
