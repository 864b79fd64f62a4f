package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

var (
	itemAvailabilities = []string{"in-stock", "out-of-stock"}
	itemKinds          = []string{"Veg", "Non-Veg", "Beverages", "Desserts", "Snacks"}
	orderCountActions  = []string{api.OrderCountSet, api.OrderCountIncrement, api.OrderCountDecrement}
)

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item", "menu"},
		Short:   "Manage menu items",
	}
	cmd.AddCommand(newItemsListCmd())
	cmd.AddCommand(newItemsGetCmd())
	cmd.AddCommand(newItemsCreateCmd())
	cmd.AddCommand(newItemsUpdateCmd())
	cmd.AddCommand(newItemsDeleteCmd())
	cmd.AddCommand(newItemsToggleCmd())
	cmd.AddCommand(newItemsBulkToggleCmd())
	cmd.AddCommand(newItemsOrderCountCmd())
	cmd.AddCommand(newItemsBestSellersCmd())
	cmd.AddCommand(newItemsStatsCmd())
	return cmd
}

func newItemsListCmd() *cobra.Command {
	var (
		category  string
		vegOnly   bool
		dietOnly  bool
		available bool
		sortBy    string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List menu items",
		Example: strings.TrimSpace(`
  mangiee items list
  mangiee items list --category "Main Course" --veg
  mangiee items list --sort orders -o json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			items, err := cat.items(ctx)
			if err != nil {
				return err
			}

			categoryID := ""
			if category != "" {
				categoryID, err = cat.categoryID(ctx, category)
				if err != nil {
					return err
				}
			}
			filtered := items[:0:0]
			for _, it := range items {
				if categoryID != "" && it.Category.ID != categoryID {
					continue
				}
				if vegOnly && !it.IsVegetarian {
					continue
				}
				if dietOnly && !it.IsDietMeal {
					continue
				}
				if available && it.Availability == "out-of-stock" {
					continue
				}
				filtered = append(filtered, it)
			}
			if err := sortItems(filtered, sortBy); err != nil {
				return err
			}
			s.trackRoute(cmd)

			if isJSON(cmd) {
				return printJSON(cmd, filtered)
			}
			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(filtered) == 0 {
				f.Empty("No items found.")
				return nil
			}
			f.StartTable([]string{"ID", "NAME", "CATEGORY", "PRICE", "VEG", "AVAILABILITY", "ORDERS"})
			for _, it := range filtered {
				f.Row(it.Key(), it.Name, it.Category.String(), outfmt.Money(it.Price),
					yesNo(it.IsVegetarian), firstNonEmpty(it.Availability, "-"), strconv.Itoa(it.TotalOrder))
			}
			return f.EndTable()
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "Only items in this category (name or ID)")
	cmd.Flags().BoolVar(&vegOnly, "veg", false, "Only vegetarian items")
	cmd.Flags().BoolVar(&dietOnly, "diet", false, "Only diet meals")
	cmd.Flags().BoolVar(&available, "available", false, "Hide out-of-stock items")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by name, price or orders")
	registerStaticCompletions(cmd, "sort", []string{"name", "price", "orders"})
	return cmd
}

func sortItems(items []api.Item, by string) error {
	if by == "" {
		return nil
	}
	by, err := normalizeEnum("sort", by, []string{"name", "price", "orders"})
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(i, j int) bool {
		switch by {
		case "price":
			return items[i].Price < items[j].Price
		case "orders":
			return items[i].TotalOrder > items[j].TotalOrder
		default:
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		}
	})
	return nil
}

func newItemsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|name>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := newCatalog(ctx, s, token).itemID(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := checked(s.client.Items().Get(ctx, id, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			renderItem(cmd, res.Data)
			return nil
		}),
	}
}

func renderItem(cmd *cobra.Command, it api.Item) {
	ioStreams := iocontext.GetIO(cmd.Context())
	f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
	f.Field("ID", it.Key())
	f.Field("Name", it.Name)
	f.OptionalField("Description", it.Description)
	f.Field("Category", it.Category.String())
	f.OptionalField("Kind", it.ItemCategory)
	f.Field("Price", outfmt.Money(it.Price))
	f.Field("Availability", it.Availability)
	f.Field("Vegetarian", yesNo(it.IsVegetarian))
	f.Field("Diet meal", yesNo(it.IsDietMeal))
	if it.Calories > 0 {
		f.Field("Calories", strconv.Itoa(it.Calories))
	}
	f.Field("Orders", strconv.Itoa(it.TotalOrder))
	f.OptionalField("Image", it.Image)
	_ = f.EndTable()
}

type itemFlags struct {
	name         string
	description  string
	category     string
	kind         string
	price        string
	availability string
	veg          bool
	diet         bool
	calories     int
	image        string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Item name")
	fs.StringVar(&f.description, "description", "", "Item description")
	fs.StringVar(&f.category, "category", "", "Menu category (name or ID)")
	fs.StringVar(&f.kind, "kind", "", "Item kind: "+strings.Join(itemKinds, ", "))
	fs.StringVar(&f.price, "price", "", "Price in rupees, e.g. 149.50")
	fs.StringVar(&f.availability, "availability", "", "in-stock or out-of-stock")
	fs.BoolVar(&f.veg, "veg", false, "Vegetarian")
	fs.BoolVar(&f.diet, "diet", false, "Diet meal")
	fs.IntVar(&f.calories, "calories", 0, "Calories per serving")
	fs.StringVar(&f.image, "image", "", "Image file path or https URL")
	flagAlias(fs, "description", "desc")
	flagAlias(fs, "category", "cat")
	flagAlias(fs, "image", "img")
	registerStaticCompletions(cmd, "availability", itemAvailabilities)
	registerStaticCompletions(cmd, "kind", itemKinds)
}

// build turns the changed flags into an ItemInput. The category name is
// resolved through the catalog only when set.
func (f *itemFlags) build(ctx context.Context, cmd *cobra.Command, cat *catalog) (api.ItemInput, []string, error) {
	var in api.ItemInput
	if flagOrAliasChanged(cmd, "name") {
		name := strings.TrimSpace(f.name)
		if err := validation.ValidateName(name); err != nil {
			return in, nil, err
		}
		in.Name = &name
	}
	if flagOrAliasChanged(cmd, "description") {
		if err := validation.ValidateDescription(f.description); err != nil {
			return in, nil, err
		}
		in.Description = &f.description
	}
	if flagOrAliasChanged(cmd, "kind") {
		kind, err := normalizeEnum("kind", f.kind, itemKinds)
		if err != nil {
			return in, nil, err
		}
		in.ItemCategory = &kind
	}
	if flagOrAliasChanged(cmd, "price") {
		d, err := validation.ParsePrice(f.price)
		if err != nil {
			return in, nil, err
		}
		price := d.InexactFloat64()
		in.Price = &price
	}
	if flagOrAliasChanged(cmd, "availability") {
		v, err := normalizeEnum("availability", f.availability, itemAvailabilities)
		if err != nil {
			return in, nil, err
		}
		in.Availability = &v
	}
	in.IsVegetarian = boolPtrIfChanged(cmd, "veg", f.veg)
	in.IsDietMeal = boolPtrIfChanged(cmd, "diet", f.diet)
	if flagOrAliasChanged(cmd, "calories") {
		if f.calories < 0 {
			return in, nil, fmt.Errorf("--calories cannot be negative")
		}
		in.Calories = intPtrIfChanged(cmd, "calories", f.calories)
	}
	image, files, err := parseImageFlag(cmd, f.image)
	if err != nil {
		return in, nil, err
	}
	in.Image = image

	if flagOrAliasChanged(cmd, "category") && cat != nil {
		id, err := cat.categoryID(ctx, f.category)
		if err != nil {
			return in, nil, fmt.Errorf("--category: %w", err)
		}
		in.Category = &id
	} else if flagOrAliasChanged(cmd, "category") {
		v := strings.TrimSpace(f.category)
		in.Category = &v
	}
	return in, files, nil
}

func newItemsCreateCmd() *cobra.Command {
	f := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an item to the menu",
		Example: strings.TrimSpace(`
  mangiee items create --name "Paneer Tikka" --category Starters --price 220 --veg --image ./tikka.jpg
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			for _, required := range []string{"name", "price", "category"} {
				if !flagOrAliasChanged(cmd, required) {
					return fmt.Errorf("--%s is required", required)
				}
			}
			ctx := cmd.Context()
			if dryrun.IsEnabled(ctx) {
				in, files, err := f.build(ctx, cmd, nil)
				if err != nil {
					return err
				}
				_, err = maybeDryRun(cmd, &dryrun.Preview{
					Operation: "create",
					Resource:  "item",
					Method:    "POST",
					Path:      previewEndpoints().Items(),
					Multipart: in.Image.IsLocal(),
					Details:   changedDetails(cmd, "name", "category", "kind", "price", "availability", "veg", "diet", "calories"),
					Files:     files,
				})
				return err
			}

			s, token, err := authed()
			if err != nil {
				return err
			}
			cat := newCatalog(ctx, s, token)
			in, _, err := f.build(ctx, cmd, cat)
			if err != nil {
				return err
			}
			if in.ItemCategory == nil {
				kind := "Veg"
				if in.IsVegetarian != nil && !*in.IsVegetarian {
					kind = "Non-Veg"
				}
				in.ItemCategory = &kind
			}
			if in.Availability == nil {
				v := itemAvailabilities[0]
				in.Availability = &v
			}
			res, err := checked(s.client.Items().Create(ctx, in, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyItems, cacheKeyCategories)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Created", "item", res.Data.Key(), res.Data.Name)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newItemsUpdateCmd() *cobra.Command {
	f := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Update a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if !anyFlagChanged(cmd, "name", "description", "category", "kind", "price", "availability", "veg", "diet", "calories", "image") {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.itemID(ctx, args[0])
			if err != nil {
				return err
			}
			in, files, err := f.build(ctx, cmd, cat)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "item",
				Method:    api.ImageMethod("PUT", in.Image),
				Path:      s.client.Endpoints.Item(id),
				Multipart: in.Image.IsLocal(),
				Details:   changedDetails(cmd, "name", "category", "kind", "price", "availability", "veg", "diet", "calories"),
				Files:     files,
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Items().Update(ctx, id, in, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyItems)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "item", id, res.Data.Name)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newItemsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Remove an item from the menu",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.itemID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "delete",
				Resource:  "item",
				Method:    "DELETE",
				Path:      s.client.Endpoints.Item(id),
			}); ok || err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete item %s? (y/N): ", args[0]),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !ok {
				return err
			}
			if _, err := checked(s.client.Items().Delete(ctx, id, token)); err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyItems, cacheKeyCategories)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"deleted": true, "id": id})
			}
			printAction(cmd, "Deleted", "item", id, "")
			return nil
		}),
	}
}

func newItemsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|name>",
		Short: "Flip an item between in-stock and out-of-stock",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.itemID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "toggle",
				Resource:  "item",
				Method:    "PUT",
				Path:      s.client.Endpoints.ItemToggle(id),
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Items().ToggleAvailability(ctx, id, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyItems)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Toggled", "item", id, firstNonEmpty(res.Data.Availability, res.Data.Name))
			return nil
		}),
	}
}

func newItemsBulkToggleCmd() *cobra.Command {
	var (
		concurrency int64
		rps         float64
	)
	cmd := &cobra.Command{
		Use:   "bulk-toggle <id|name>...",
		Short: "Toggle availability for several items at once",
		Example: strings.TrimSpace(`
  mangiee items bulk-toggle "Paneer Tikka" "Veg Biryani"
  mangiee items bulk-toggle 65f1c0a2b3d4e5f6a7b8c9d0,65f1c0a2b3d4e5f6a7b8c9d1 --concurrency 2
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var queries []string
			for _, a := range args {
				queries = append(queries, splitCommaList(a)...)
			}
			if len(queries) == 0 {
				return fmt.Errorf("no items given")
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if rps <= 0 {
				return fmt.Errorf("--rate must be positive")
			}

			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			ids, err := resolveAll(ctx, queries, cat.itemID)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "bulk-toggle",
				Resource:    "item",
				Method:      "PUT",
				Path:        s.client.Endpoints.ItemToggle(":id"),
				Description: fmt.Sprintf("Toggle %d items", len(ids)),
				Details:     map[string]any{"ids": ids},
			}); ok || err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Toggle availability for %d items? (y/N): ", len(ids)),
				CancelMessage: "Cancelled.",
				Force:         len(ids) == 1,
			})
			if err != nil || !ok {
				return err
			}

			progress := iocontext.GetIO(ctx).ErrOut
			if flags.Quiet || isJSON(cmd) {
				progress = nil
			}
			results := runBulkOperation(ctx, ids, bulkOptions{
				Concurrency: concurrency,
				Rate:        rps,
				Progress:    progress,
			}, func(ctx context.Context, id string) (api.Item, error) {
				res, err := checked(s.client.Items().ToggleAvailability(ctx, id, token))
				if err != nil {
					return api.Item{}, err
				}
				return res.Data, nil
			})
			cat.invalidate(ctx, cacheKeyItems)

			success, failed := countResults(results)
			if isJSON(cmd) {
				if err := printJSON(cmd, map[string]any{
					"results":   results,
					"succeeded": success,
					"failed":    failed,
				}); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Success {
						printText(cmd, "ok   %s\n", r.ID)
					} else {
						printText(cmd, "FAIL %s: %s\n", r.ID, r.Error)
					}
				}
				printText(cmd, "%d toggled, %d failed\n", success, failed)
			}
			if failed > 0 {
				return &handledError{err: fmt.Errorf("%d of %d toggles failed", failed, len(results)), exitCode: exitGeneric}
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Parallel requests")
	cmd.Flags().Float64Var(&rps, "rate", DefaultRate, "Maximum requests per second")
	return cmd
}

func newItemsOrderCountCmd() *cobra.Command {
	var (
		action string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "order-count <id|name>",
		Short: "Set or adjust an item's order counter",
		Example: strings.TrimSpace(`
  mangiee items order-count "Veg Biryani" --action increment
  mangiee items order-count "Veg Biryani" --action set --count 120
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			act, err := normalizeEnum("action", action, orderCountActions)
			if err != nil {
				return err
			}
			if act == api.OrderCountSet && !flagOrAliasChanged(cmd, "count") {
				return fmt.Errorf("--count is required with --action set")
			}
			if count < 0 {
				return fmt.Errorf("--count cannot be negative")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.itemID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "order-count",
				Resource:  "item",
				Method:    "PUT",
				Path:      s.client.Endpoints.ItemOrderCount(id),
				Details:   map[string]any{"action": act, "totalOrder": count},
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Items().UpdateOrderCount(ctx, id, count, act, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyItems)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "order count for", id, strconv.Itoa(res.Data.TotalOrder))
			return nil
		}),
	}
	cmd.Flags().StringVar(&action, "action", api.OrderCountIncrement, "set, increment or decrement")
	cmd.Flags().IntVar(&count, "count", 0, "Order count (required for set)")
	registerStaticCompletions(cmd, "action", orderCountActions)
	return cmd
}

func newItemsBestSellersCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "best-sellers",
		Aliases: []string{"top"},
		Short:   "List the most ordered items",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be positive")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := checked(s.client.Items().BestSellers(ctx, limit, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(res.Data) == 0 {
				f.Empty("No orders yet.")
				return nil
			}
			f.StartTable([]string{"#", "NAME", "ORDERS", "PRICE"})
			for i, it := range res.Data {
				f.Row(strconv.Itoa(i+1), it.Name, strconv.Itoa(it.TotalOrder), outfmt.Money(it.Price))
			}
			return f.EndTable()
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of items")
	return cmd
}

func newItemsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show menu statistics",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Items().Stats(cmd.Context(), token))
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

// renderStats prints a free-form stats object as sorted key/value lines.
// Nested values are printed as compact JSON.
func renderStats(cmd *cobra.Command, stats api.Stats) {
	if len(stats) == 0 {
		printText(cmd, "No statistics available.\n")
		return
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := newTabWriterFromCmd(cmd)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s:\t%s\n", k, statValue(stats[k]))
	}
	_ = w.Flush()
}

func statValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return yesNo(t)
	default:
		var b strings.Builder
		if err := outfmt.WriteJSONMaybeCompact(&b, t, true); err != nil {
			return fmt.Sprint(t)
		}
		return strings.TrimSpace(b.String())
	}
}
