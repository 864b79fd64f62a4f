package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show today's restaurant overview",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Dashboard().Get(cmd.Context(), token))
			if err != nil {
				return err
			}
			s.trackRoute(cmd)
			d := res.Data
			if isJSON(cmd) {
				return printJSON(cmd, d)
			}

			revenue := decimal.NewFromFloat(d.Stats.TotalRevenue).Round(2)
			avgOrder := decimal.Zero
			if d.Stats.TotalOrders > 0 {
				avgOrder = revenue.Div(decimal.NewFromInt(int64(d.Stats.TotalOrders))).Round(2)
			}

			name := firstNonEmpty(d.RestaurantInfo.BusinessName, d.RestaurantInfo.Name)
			if name != "" {
				printText(cmd, "%s", name)
				if d.RestaurantInfo.Status != "" {
					printText(cmd, " (%s)", d.RestaurantInfo.Status)
				}
				printText(cmd, "\n\n")
			}

			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Orders:\t%d\n", d.Stats.TotalOrders)
			_, _ = fmt.Fprintf(w, "Revenue:\t₹%s\n", revenue.StringFixed(2))
			_, _ = fmt.Fprintf(w, "Avg order:\t₹%s\n", avgOrder.StringFixed(2))
			_, _ = fmt.Fprintf(w, "Customers:\t%d\n", d.Stats.TotalCustomers)
			_, _ = fmt.Fprintf(w, "Rating:\t%.1f\n", d.Stats.AverageRating)
			if err := w.Flush(); err != nil {
				return err
			}

			if len(d.RecentActivity) > 0 {
				printText(cmd, "\nRecent activity:\n")
				for _, a := range d.RecentActivity {
					printText(cmd, "  - %s\n", activityLine(a))
				}
			}
			return nil
		}),
	}
}

func activityLine(a map[string]any) string {
	for _, key := range []string{"message", "description", "title", "type"} {
		if v, ok := a[key].(string); ok && v != "" {
			return v
		}
	}
	return fmt.Sprint(a)
}
