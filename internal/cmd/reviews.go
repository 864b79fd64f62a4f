package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
)

func newReviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review", "ratings"},
		Short:   "Read customer reviews",
	}
	cmd.AddCommand(newReviewsListCmd())
	cmd.AddCommand(newReviewsStatsCmd())
	return cmd
}

func newReviewsListCmd() *cobra.Command {
	var (
		page  int
		limit int
		all   bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List reviews, newest first",
		Example: strings.TrimSpace(`
  mangiee reviews list
  mangiee reviews list --page 2 --limit 20
  mangiee reviews list --all -o jsonl
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1")
			}
			if limit < 1 || limit > 100 {
				return fmt.Errorf("--limit must be between 1 and 100")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var reviews []api.Review
			current := page
			var last *api.ReviewPage
			for {
				res, err := checked(s.client.Reviews().List(ctx, current, limit, token))
				if err != nil {
					return err
				}
				last = &res.Data
				reviews = append(reviews, res.Data.Reviews...)
				if !all || !res.Data.Pagination.HasNextPage || len(res.Data.Reviews) == 0 {
					break
				}
				current++
			}
			s.trackRoute(cmd)

			if isJSON(cmd) {
				if all {
					return printJSON(cmd, reviews)
				}
				return printJSON(cmd, last)
			}
			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(reviews) == 0 {
				f.Empty("No reviews yet.")
				return nil
			}
			f.StartTable([]string{"DATE", "RATING", "CUSTOMER", "COMMENT"})
			for _, r := range reviews {
				f.Row(shortDate(r.CreatedAt), outfmt.Stars(r.Rating), customerName(r.Customer), truncate(r.Comment, 60))
			}
			if err := f.EndTable(); err != nil {
				return err
			}
			if !all && last != nil && last.Pagination.HasNextPage {
				printText(cmd, "\nMore reviews: --page %d\n", current+1)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Reviews per page")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	return cmd
}

// customerName reads the customer field, which is either an id string or a
// populated object.
func customerName(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "-"
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return firstNonEmpty(id, "-")
	}
	var c struct {
		Name      string `json:"name"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Phone     string `json:"phoneNumber"`
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return "-"
	}
	full := strings.TrimSpace(c.FirstName + " " + c.LastName)
	return firstNonEmpty(c.Name, full, c.Phone, "-")
}

func shortDate(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local().Format("2006-01-02")
	}
	return firstNonEmpty(s, "-")
}

func newReviewsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show rating statistics",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Reviews().Stats(cmd.Context(), token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			renderStats(cmd, res.Data)
			return nil
		}),
	}
}
