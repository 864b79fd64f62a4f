package orderwatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangiee/restaurant-cli/internal/api"
)

type fakeFetcher struct {
	mu     sync.Mutex
	orders []api.CompletedOrder
	err    error
	calls  int
}

func (f *fakeFetcher) Completed(context.Context) ([]api.CompletedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]api.CompletedOrder(nil), f.orders...), f.err
}

func (f *fakeFetcher) set(orders ...api.CompletedOrder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func order(id string) api.CompletedOrder {
	return api.CompletedOrder{ID: id, OrderNumber: "ORD-" + id}
}

func keys(orders []api.CompletedOrder) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Key())
	}
	return out
}

func TestCheckShowsNewOrders(t *testing.T) {
	f := &fakeFetcher{orders: []api.CompletedOrder{order("1"), order("2")}}
	w := New(f, nil)

	batch, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, keys(batch))

	st := w.Snapshot()
	assert.True(t, st.ShowTooltip)
	assert.Len(t, st.Orders, 2)
}

func TestDismissHidesUntilCleared(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{orders: []api.CompletedOrder{order("1"), order("2")}}
	w := New(f, nil)

	_, err := w.Check(ctx)
	require.NoError(t, err)
	w.Dismiss()
	assert.False(t, w.Snapshot().ShowTooltip)
	assert.Equal(t, 2, w.Snapshot().Dismissed)

	f.set(order("1"), order("2"), order("3"))
	batch, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, keys(batch))

	w.ClearDismissed()
	batch, err = w.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, keys(batch))
}

func TestMarkProcessedIsPermanent(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{orders: []api.CompletedOrder{order("1"), order("2")}}
	w := New(f, nil)

	_, _ = w.Check(ctx)
	w.Dismiss()
	require.NoError(t, w.MarkProcessed(ctx, []string{"1"}))
	assert.Equal(t, 1, w.Snapshot().Dismissed, "processed ids leave the dismissed set")

	w.ClearDismissed()
	batch, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, keys(batch))

	require.NoError(t, w.MarkProcessed(ctx, nil))
	assert.True(t, w.Snapshot().ShowTooltip)
	require.NoError(t, w.MarkProcessed(ctx, []string{"2"}))
	assert.False(t, w.Snapshot().ShowTooltip)
}

func TestDisabledSuppressesTooltip(t *testing.T) {
	f := &fakeFetcher{orders: []api.CompletedOrder{order("1")}}
	w := New(f, nil)
	w.SetEnabled(false)

	batch, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.False(t, w.Snapshot().ShowTooltip)

	w.SetEnabled(true)
	batch, _ = w.Check(context.Background())
	assert.Len(t, batch, 1)
}

func TestCheckErrorKeepsState(t *testing.T) {
	f := &fakeFetcher{orders: []api.CompletedOrder{order("1")}}
	w := New(f, nil)
	_, _ = w.Check(context.Background())

	f.err = &api.Error{Kind: api.KindTimeout, Message: api.MsgTimeout}
	_, err := w.Check(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsTimeout(err))

	st := w.Snapshot()
	assert.True(t, st.ShowTooltip)
	assert.Len(t, st.Orders, 1)
}

func TestRunPollsAndNotifies(t *testing.T) {
	f := &fakeFetcher{orders: []api.CompletedOrder{order("1")}}
	w := New(f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	notify := make(chan Notification, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond, notify, nil) }()

	first := <-notify
	assert.Equal(t, []string{"1"}, keys(first.Orders))

	require.NoError(t, w.MarkProcessed(ctx, []string{"1"}))
	f.set(order("1"), order("2"))

	select {
	case n := <-notify:
		assert.Equal(t, []string{"2"}, keys(n.Orders))
	case <-time.After(2 * time.Second):
		t.Fatal("expected a second notification")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRunReportsErrors(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	w := New(f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 8)
	go func() {
		_ = w.Run(ctx, 5*time.Millisecond, nil, func(err error) {
			select {
			case errs <- err:
			default:
			}
		})
	}()

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error callback")
	}
	cancel()
}

func TestAPIFetcher(t *testing.T) {
	fetch := APIFetcher(api.New("http://127.0.0.1:1").Orders(), func() string { return "" })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetch.Completed(ctx)
	require.Error(t, err)
}

func TestAPIFetcherRefusedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success": false, "message": "Restaurant is not approved yet"}`))
	}))
	defer server.Close()

	w := New(APIFetcher(api.New(server.URL).Orders(), func() string { return "tok" }), NewMemoryStore())
	orders, err := w.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Restaurant is not approved yet", err.Error())
	assert.Equal(t, api.KindRejected, api.KindOf(err))
	assert.Empty(t, orders)
	assert.False(t, w.Snapshot().ShowTooltip)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client, "r1", time.Hour)

	require.NoError(t, store.Mark(ctx, []string{"1", "3"}))
	got, err := store.Processed(ctx, []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "1")
	assert.Contains(t, got, "3")

	assert.Equal(t, time.Hour, mr.TTL("orders:processed:r1:1"))

	other := NewRedisStore(client, "r2", 0)
	got, err = other.Processed(ctx, []string{"1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	mr.FastForward(2 * time.Hour)
	got, _ = store.Processed(ctx, []string{"1"})
	assert.Empty(t, got)
}

func TestWatcherWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	f := &fakeFetcher{orders: []api.CompletedOrder{order("1"), order("2")}}
	first := New(f, NewRedisStore(client, "r1", 0))
	_, _ = first.Check(ctx)
	require.NoError(t, first.MarkProcessed(ctx, []string{"1"}))

	second := New(f, NewRedisStore(client, "r1", 0))
	batch, err := second.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, keys(batch))
}
