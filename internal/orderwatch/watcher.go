// Package orderwatch polls for orders the kitchen has completed and
// surfaces the ones nobody has dealt with yet.
//
// An order stops being surfaced in two ways. Dismissing the notification
// hides the current batch until ClearDismissed is called. Marking orders as
// processed hides them for good (as long as the ProcessedStore keeps them).
package orderwatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mangiee/restaurant-cli/internal/api"
)

// DefaultInterval is the polling period.
const DefaultInterval = 30 * time.Second

// Fetcher lists completed orders.
type Fetcher interface {
	Completed(ctx context.Context) ([]api.CompletedOrder, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context) ([]api.CompletedOrder, error)

func (f FetchFunc) Completed(ctx context.Context) ([]api.CompletedOrder, error) {
	return f(ctx)
}

// APIFetcher fetches through the orders service with a fixed token source.
func APIFetcher(orders api.OrdersService, token func() string) Fetcher {
	return FetchFunc(func(ctx context.Context) ([]api.CompletedOrder, error) {
		env, err := orders.Completed(ctx, token())
		if err != nil {
			return nil, err
		}
		if err := env.Err(); err != nil {
			return nil, err
		}
		return env.Data, nil
	})
}

// Notification is delivered by Run whenever new completed orders appear.
type Notification struct {
	Orders []api.CompletedOrder
	At     time.Time
}

// State is a snapshot of the watcher.
type State struct {
	Orders      []api.CompletedOrder
	ShowTooltip bool
	Enabled     bool
	Dismissed   int
}

// Watcher is safe for concurrent use.
type Watcher struct {
	fetcher   Fetcher
	processed ProcessedStore
	now       func() time.Time

	mu          sync.Mutex
	orders      []api.CompletedOrder
	showTooltip bool
	enabled     bool
	dismissed   map[string]struct{}
}

// New creates a watcher. A nil store keeps processed ids in memory.
func New(fetcher Fetcher, processed ProcessedStore) *Watcher {
	if processed == nil {
		processed = NewMemoryStore()
	}
	return &Watcher{
		fetcher:   fetcher,
		processed: processed,
		now:       time.Now,
		enabled:   true,
		dismissed: make(map[string]struct{}),
	}
}

// Check fetches completed orders once. Orders that are dismissed or processed
// are dropped; if any remain and notifications are enabled they become the
// current batch and the tooltip is shown. The new batch is returned.
// A failed fetch leaves the state untouched.
func (w *Watcher) Check(ctx context.Context) ([]api.CompletedOrder, error) {
	orders, err := w.fetcher.Completed(ctx)
	if err != nil {
		slog.Debug("completed orders check failed", "error", err)
		return nil, fmt.Errorf("check completed orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.Key())
	}
	done, err := w.processed.Processed(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load processed orders: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []api.CompletedOrder
	for _, o := range orders {
		id := o.Key()
		if _, ok := w.dismissed[id]; ok {
			continue
		}
		if _, ok := done[id]; ok {
			continue
		}
		fresh = append(fresh, o)
	}
	if len(fresh) == 0 || !w.enabled {
		return nil, nil
	}
	w.orders = fresh
	w.showTooltip = true
	return append([]api.CompletedOrder(nil), fresh...), nil
}

// Dismiss hides the current batch until ClearDismissed.
func (w *Watcher) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, o := range w.orders {
		w.dismissed[o.Key()] = struct{}{}
	}
	w.showTooltip = false
}

// ClearDismissed makes dismissed orders eligible again.
func (w *Watcher) ClearDismissed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dismissed = make(map[string]struct{})
}

// MarkProcessed hides orders permanently.
func (w *Watcher) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.processed.Mark(ctx, ids); err != nil {
		return fmt.Errorf("mark orders processed: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range ids {
		delete(w.dismissed, id)
	}
	w.showTooltip = false
	return nil
}

// SetEnabled turns notifications on or off. Polling continues either way.
func (w *Watcher) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = enabled
	if !enabled {
		w.showTooltip = false
	}
}

// Snapshot returns the current state.
func (w *Watcher) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Orders:      append([]api.CompletedOrder(nil), w.orders...),
		ShowTooltip: w.showTooltip,
		Enabled:     w.enabled,
		Dismissed:   len(w.dismissed),
	}
}

// Run checks immediately and then every interval until ctx is done. A batch
// is sent on notify when it differs from the last one sent; errors go to
// onError when it is non-nil. Run returns nil when ctx is canceled.
func (w *Watcher) Run(ctx context.Context, interval time.Duration, notify chan<- Notification, onError func(error)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	poll := func() {
		batch, err := w.Check(ctx)
		if err != nil {
			if ctx.Err() == nil && onError != nil {
				onError(err)
			}
			return
		}
		if len(batch) == 0 || notify == nil {
			return
		}
		sig := batchSignature(batch)
		if sig == last {
			return
		}
		last = sig
		select {
		case notify <- Notification{Orders: batch, At: w.now()}:
		case <-ctx.Done():
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		}
	}
}

func batchSignature(orders []api.CompletedOrder) string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.Key())
	}
	return strings.Join(ids, ",")
}
