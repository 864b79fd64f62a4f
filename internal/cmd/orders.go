package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/cache"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/orderwatch"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Follow completed orders",
	}
	cmd.AddCommand(newOrdersCompletedCmd())
	cmd.AddCommand(newOrdersWatchCmd())
	cmd.AddCommand(newOrdersMarkProcessedCmd())
	return cmd
}

func newOrdersCompletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completed",
		Short: "List orders the kitchen has completed",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := checked(s.client.Orders().Completed(ctx, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			renderOrders(ctx, res.Data, "No completed orders.")
			return nil
		}),
	}
}

func renderOrders(ctx context.Context, orders []api.CompletedOrder, empty string) {
	ioStreams := iocontext.GetIO(ctx)
	f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
	if len(orders) == 0 {
		f.Empty(empty)
		return
	}
	f.StartTable([]string{"ID", "ORDER", "CUSTOMER", "TOTAL", "STATUS", "COMPLETED"})
	for _, o := range orders {
		f.Row(o.Key(), firstNonEmpty(o.OrderNumber, "-"), firstNonEmpty(o.Customer, "-"),
			outfmt.Money(o.Total), firstNonEmpty(o.Status, "-"), shortTime(o.CompletedAt))
	}
	_ = f.EndTable()
}

func shortTime(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local().Format("Jan 2 15:04")
	}
	return firstNonEmpty(s, "-")
}

// processedStore shares processed marks through Redis when configured so
// several terminals watching one restaurant agree. Without Redis the marks
// only last for this process.
func processedStore(ctx context.Context, s *session) orderwatch.ProcessedStore {
	addr := strings.TrimSpace(env.Cache.RedisAddr)
	if addr == "" {
		return orderwatch.NewMemoryStore()
	}
	client, err := cache.Connect(ctx, cache.RedisConfig{
		Addr:     addr,
		Password: env.Cache.RedisPassword,
		DB:       env.Cache.RedisDB,
	})
	if err != nil {
		slog.Warn("redis unavailable, processed orders kept in memory", "addr", addr, "error", err)
		return orderwatch.NewMemoryStore()
	}
	return orderwatch.NewRedisStore(client, s.restaurantID(), 0)
}

type watchMetrics struct {
	checks        *prometheus.CounterVec
	notifications prometheus.Counter
	pending       prometheus.Gauge
}

func newWatchMetrics(reg prometheus.Registerer) *watchMetrics {
	factory := promauto.With(reg)
	return &watchMetrics{
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mangiee",
			Subsystem: "orderwatch",
			Name:      "checks_total",
			Help:      "Completed-order polls, by result.",
		}, []string{"result"}),
		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mangiee",
			Subsystem: "orderwatch",
			Name:      "notifications_total",
			Help:      "Batches of new completed orders surfaced.",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mangiee",
			Subsystem: "orderwatch",
			Name:      "pending_orders",
			Help:      "Completed orders in the current unprocessed batch.",
		}),
	}
}

// serveMetrics exposes reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Surface bind errors before the watch starts.
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
	}
	slog.Info("serving metrics", "addr", addr)
	return nil
}

func newOrdersWatchCmd() *cobra.Command {
	var (
		interval      time.Duration
		metricsAddr   string
		markProcessed bool
		once          bool
	)
	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Poll for newly completed orders",
		Long: strings.TrimSpace(`
Poll the completed-orders endpoint and print each new batch of orders that
has not been processed yet. With --mark-processed every batch is marked as
processed once printed, so it is never shown again. Set MANGIEE_REDIS_ADDR
to share processed marks between terminals.
`),
		Example: strings.TrimSpace(`
  mangiee orders watch
  mangiee orders watch --interval 10s --mark-processed
  mangiee orders watch --metrics-addr :9108 -o jsonl
  mangiee orders watch --once
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("interval") && env.PollInterval > 0 {
				interval = env.PollInterval
			}
			if interval < time.Second {
				return fmt.Errorf("--interval must be at least 1s")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var metrics *watchMetrics
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				s.client.Observer = api.NewPrometheusObserver(reg)
				metrics = newWatchMetrics(reg)
				if err := serveMetrics(ctx, metricsAddr, reg); err != nil {
					return err
				}
			}

			w := orderwatch.New(orderwatch.APIFetcher(s.client.Orders(), func() string { return token }), processedStore(ctx, s))
			s.trackRoute(cmd)

			if once {
				batch, err := w.Check(ctx)
				if err != nil {
					return err
				}
				return emitBatch(ctx, cmd, w, batch, time.Now(), markProcessed)
			}

			if !isJSON(cmd) && !flags.Quiet {
				_, _ = fmt.Fprintf(iocontext.GetIO(ctx).ErrOut, "Watching completed orders every %s (Ctrl+C to stop)...\n", interval)
			}

			notify := make(chan orderwatch.Notification)
			runErr := make(chan error, 1)
			go func() {
				runErr <- w.Run(ctx, interval, notify, func(err error) {
					if metrics != nil {
						metrics.checks.WithLabelValues("error").Inc()
					}
					slog.Warn("order check failed", "error", err)
				})
			}()

			for {
				select {
				case n := <-notify:
					if metrics != nil {
						metrics.checks.WithLabelValues("new").Inc()
						metrics.notifications.Inc()
						metrics.pending.Set(float64(len(n.Orders)))
					}
					if err := emitBatch(ctx, cmd, w, n.Orders, n.At, markProcessed); err != nil {
						return err
					}
					if markProcessed && metrics != nil {
						metrics.pending.Set(0)
					}
				case err := <-runErr:
					if !isJSON(cmd) && !flags.Quiet {
						_, _ = fmt.Fprintln(iocontext.GetIO(ctx).ErrOut, "Stopped watching.")
					}
					return err
				}
			}
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", orderwatch.DefaultInterval, "Polling interval")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9108")
	cmd.Flags().BoolVar(&markProcessed, "mark-processed", false, "Mark each printed batch as processed")
	cmd.Flags().BoolVar(&once, "once", false, "Check once and exit")
	return cmd
}

// emitBatch prints a batch and, when asked, marks it processed. Without
// marking, the batch is dismissed so the same orders are not printed on
// every poll.
func emitBatch(ctx context.Context, cmd *cobra.Command, w *orderwatch.Watcher, batch []api.CompletedOrder, at time.Time, markProcessed bool) error {
	if isJSON(cmd) {
		if len(batch) == 0 && outfmt.IsJSONL(ctx) {
			return nil
		}
		if err := printJSON(cmd, map[string]any{
			"at":     at.UTC().Format(time.RFC3339),
			"orders": batch,
		}); err != nil {
			return err
		}
	} else if len(batch) > 0 {
		printText(cmd, "%s  %d new completed order(s)\n", at.Local().Format("15:04:05"), len(batch))
		renderOrders(ctx, batch, "")
		printText(cmd, "\n")
	} else {
		printText(cmd, "No new completed orders.\n")
	}
	if len(batch) == 0 {
		return nil
	}
	if markProcessed {
		ids := make([]string, 0, len(batch))
		for _, o := range batch {
			ids = append(ids, o.Key())
		}
		return w.MarkProcessed(ctx, ids)
	}
	w.Dismiss()
	return nil
}

func newOrdersMarkProcessedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-processed <order-id>...",
		Short: "Stop surfacing completed orders in watch",
		Long: strings.TrimSpace(`
Record orders as processed in the shared store so that every
"orders watch" using the same MANGIEE_REDIS_ADDR skips them.
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(env.Cache.RedisAddr) == "" {
				return fmt.Errorf("MANGIEE_REDIS_ADDR is not set: processed marks are only shared through Redis")
			}
			var ids []string
			for _, a := range args {
				ids = append(ids, splitCommaList(a)...)
			}
			s, _, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w := orderwatch.New(nil, processedStore(ctx, s))
			if err := w.MarkProcessed(ctx, ids); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"processed": ids})
			}
			printAction(cmd, "Marked", "orders processed", "", strings.Join(ids, ", "))
			return nil
		}),
	}
}
