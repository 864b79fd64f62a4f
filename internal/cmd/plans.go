package cmd

import (
	"encoding/json"
	"fmt"
	"os"
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
	weekDays  = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	mealTypes = []string{"breakfast", "lunch", "snacks", "dinner"}
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plans",
		Aliases: []string{"plan", "subscriptions"},
		Short:   "Manage weekly meal plans",
	}
	cmd.AddCommand(newPlansListCmd())
	cmd.AddCommand(newPlansGetCmd())
	cmd.AddCommand(newPlansCreateCmd())
	cmd.AddCommand(newPlansUpdateCmd())
	cmd.AddCommand(newPlansDeleteCmd())
	cmd.AddCommand(newPlansToggleCmd())
	cmd.AddCommand(newPlansStatsCmd())
	cmd.AddCommand(newPlansMealCmd())
	cmd.AddCommand(newPlansFeatureCmd())
	return cmd
}

func newPlansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List plans",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			plans, err := newCatalog(ctx, s, token).plans(ctx)
			if err != nil {
				return err
			}
			s.trackRoute(cmd)
			if isJSON(cmd) {
				return printJSON(cmd, plans)
			}
			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(plans) == 0 {
				f.Empty("No plans found.")
				return nil
			}
			f.StartTable([]string{"ID", "NAME", "PRICE/WEEK", "MAX SUBSCRIBERS", "AVAILABLE", "TAGS"})
			for _, p := range plans {
				f.Row(p.Key(), p.Name, outfmt.Money(p.PricePerWeek), maxSubscribersLabel(p.MaxSubscribers),
					availableLabel(p.IsAvailable), planTags(p))
			}
			return f.EndTable()
		}),
	}
}

func maxSubscribersLabel(n int) string {
	if n <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

// availableLabel treats a missing flag as available, like the backend.
func availableLabel(v *bool) string {
	if v == nil {
		return "yes"
	}
	return yesNo(*v)
}

func planTags(p api.Plan) string {
	var tags []string
	if p.IsRecommended {
		tags = append(tags, "recommended")
	}
	if p.IsPopular {
		tags = append(tags, "popular")
	}
	return firstNonEmpty(strings.Join(tags, ","), "-")
}

func newPlansGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|name>",
		Short: "Show one plan",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := newCatalog(ctx, s, token).planID(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := checked(s.client.Plans().Get(ctx, id, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			renderPlan(cmd, res.Data)
			return nil
		}),
	}
}

func renderPlan(cmd *cobra.Command, p api.Plan) {
	w := newTabWriterFromCmd(cmd)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", p.Key())
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", p.Name)
	_, _ = fmt.Fprintf(w, "Price/week:\t%s\n", outfmt.Money(p.PricePerWeek))
	_, _ = fmt.Fprintf(w, "Max subscribers:\t%s\n", maxSubscribersLabel(p.MaxSubscribers))
	_, _ = fmt.Fprintf(w, "Available:\t%s\n", availableLabel(p.IsAvailable))
	_, _ = fmt.Fprintf(w, "Tags:\t%s\n", planTags(p))
	_ = w.Flush()

	out := iocontext.GetIO(cmd.Context()).Out
	if len(p.Features) > 0 {
		_, _ = fmt.Fprintln(out, "\nFeatures:")
		for _, feature := range p.Features {
			_, _ = fmt.Fprintf(out, "  - %s\n", feature)
		}
	}
	if len(p.WeeklyMeals) > 0 && string(p.WeeklyMeals) != "null" {
		_, _ = fmt.Fprintln(out, "\nWeekly meals:")
		renderWeeklyMeals(cmd, p.WeeklyMeals)
	}
}

// renderWeeklyMeals prints day → slot → dishes when the payload has that
// shape and falls back to indented JSON otherwise.
func renderWeeklyMeals(cmd *cobra.Command, raw json.RawMessage) {
	out := iocontext.GetIO(cmd.Context()).Out
	var week map[string]map[string][]api.Meal
	if err := json.Unmarshal(raw, &week); err != nil {
		_ = outfmt.WriteJSON(out, raw)
		return
	}
	for _, day := range weekDays {
		slots, ok := week[day]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s\n", strings.ToUpper(day[:1])+day[1:])
		for _, slot := range mealTypes {
			meals := slots[slot]
			if len(meals) == 0 {
				continue
			}
			names := make([]string, 0, len(meals))
			for _, m := range meals {
				if m.Calories > 0 {
					names = append(names, fmt.Sprintf("%s (%d kcal)", m.Name, m.Calories))
				} else {
					names = append(names, m.Name)
				}
			}
			_, _ = fmt.Fprintf(out, "    %-10s %s\n", slot+":", strings.Join(names, ", "))
		}
	}
}

type planFlags struct {
	name           string
	price          string
	features       []string
	weeklyMeals    string
	maxSubscribers int
	recommended    bool
	popular        bool
}

var planFieldFlags = []string{"name", "price", "features", "weekly-meals", "max-subscribers", "recommended", "popular"}

func (f *planFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Plan name")
	fs.StringVar(&f.price, "price", "", "Price per week in rupees")
	fs.StringSliceVar(&f.features, "features", nil, "Feature lines (comma separated or repeated)")
	fs.StringVar(&f.weeklyMeals, "weekly-meals", "", "Weekly meals JSON, or @file to read it from a file")
	fs.IntVar(&f.maxSubscribers, "max-subscribers", 0, "Subscriber cap (0 = unlimited)")
	fs.BoolVar(&f.recommended, "recommended", false, "Mark as recommended")
	fs.BoolVar(&f.popular, "popular", false, "Mark as popular")
	flagAlias(fs, "features", "feature")
}

func (f *planFlags) build(cmd *cobra.Command) (api.PlanInput, error) {
	var in api.PlanInput
	if flagOrAliasChanged(cmd, "name") {
		name := strings.TrimSpace(f.name)
		if err := validation.ValidateName(name); err != nil {
			return in, err
		}
		in.Name = &name
	}
	if flagOrAliasChanged(cmd, "price") {
		d, err := validation.ParsePrice(f.price)
		if err != nil {
			return in, fmt.Errorf("--price: %w", err)
		}
		v := d.InexactFloat64()
		in.PricePerWeek = &v
	}
	if flagOrAliasChanged(cmd, "features") {
		in.Features = []string{}
		for _, feature := range f.features {
			if feature = strings.TrimSpace(feature); feature != "" {
				in.Features = append(in.Features, feature)
			}
		}
	}
	if flagOrAliasChanged(cmd, "weekly-meals") {
		meals, err := readJSONArg(f.weeklyMeals)
		if err != nil {
			return in, fmt.Errorf("--weekly-meals: %w", err)
		}
		in.WeeklyMeals = meals
	}
	if flagOrAliasChanged(cmd, "max-subscribers") {
		if f.maxSubscribers < 0 {
			return in, fmt.Errorf("--max-subscribers cannot be negative")
		}
		in.MaxSubscribers = &f.maxSubscribers
	}
	in.IsRecommended = boolPtrIfChanged(cmd, "recommended", f.recommended)
	in.IsPopular = boolPtrIfChanged(cmd, "popular", f.popular)
	return in, nil
}

// readJSONArg parses inline JSON or the contents of @path.
func readJSONArg(value string) (json.RawMessage, error) {
	value = strings.TrimSpace(value)
	data := []byte(value)
	if strings.HasPrefix(value, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return nil, err
		}
		data = b
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("not valid JSON")
	}
	return json.RawMessage(data), nil
}

func newPlansCreateCmd() *cobra.Command {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan",
		Example: strings.TrimSpace(`
  mangiee plans create --name "Veg Lunch Weekly" --price 899 --features "6 lunches,Free delivery"
  mangiee plans create --name "Full Board" --price 2499 --weekly-meals @meals.json --popular
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			for _, required := range []string{"name", "price"} {
				if !flagOrAliasChanged(cmd, required) {
					return fmt.Errorf("--%s is required", required)
				}
			}
			in, err := f.build(cmd)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "plan",
				Method:    "POST",
				Path:      previewEndpoints().Plans(),
				Details:   changedDetails(cmd, planFieldFlags...),
			}); ok || err != nil {
				return err
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := checked(s.client.Plans().Create(ctx, in, token))
			if err != nil {
				return err
			}
			newCatalog(ctx, s, token).invalidate(ctx, cacheKeyPlans)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Created", "plan", res.Data.Key(), res.Data.Name)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newPlansUpdateCmd() *cobra.Command {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Update a plan",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if !anyFlagChanged(cmd, planFieldFlags...) {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			in, err := f.build(cmd)
			if err != nil {
				return err
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.planID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "plan",
				Method:    "PUT",
				Path:      s.client.Endpoints.Plan(id),
				Details:   changedDetails(cmd, planFieldFlags...),
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Plans().Update(ctx, id, in, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyPlans)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "plan", id, res.Data.Name)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newPlansDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a plan",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.planID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "delete",
				Resource:  "plan",
				Method:    "DELETE",
				Path:      s.client.Endpoints.Plan(id),
			}); ok || err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete plan %s? Subscribers keep their current week. (y/N): ", args[0]),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !ok {
				return err
			}
			if _, err := checked(s.client.Plans().Delete(ctx, id, token)); err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyPlans)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"deleted": true, "id": id})
			}
			printAction(cmd, "Deleted", "plan", id, "")
			return nil
		}),
	}
}

func newPlansToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|name>",
		Short: "Open or close a plan for new subscribers",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.planID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "toggle",
				Resource:  "plan",
				Method:    "PUT",
				Path:      s.client.Endpoints.PlanToggle(id),
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Plans().ToggleAvailability(ctx, id, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyPlans)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Toggled", "plan", id, "available: "+availableLabel(res.Data.IsAvailable))
			return nil
		}),
	}
}

func newPlansStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [id|name]",
		Short: "Show subscription statistics for one plan or all plans",
		Args:  cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var res *api.Envelope[api.Stats]
			if len(args) == 1 {
				id, err := newCatalog(ctx, s, token).planID(ctx, args[0])
				if err != nil {
					return err
				}
				res, err = checked(s.client.Plans().Stats(ctx, id, token))
				if err != nil {
					return err
				}
			} else {
				res, err = checked(s.client.Plans().AllStats(ctx, token))
				if err != nil {
					return err
				}
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			renderStats(cmd, res.Data)
			return nil
		}),
	}
}

func newPlansMealCmd() *cobra.Command {
	var (
		day      string
		mealType string
		meals    []string
	)
	cmd := &cobra.Command{
		Use:   "meal <id|name>",
		Short: "Replace the dishes for one day and meal slot",
		Example: strings.TrimSpace(`
  mangiee plans meal "Veg Lunch Weekly" --day monday --meal-type lunch \
    --meal "Dal Tadka:320" --meal "Jeera Rice:250" --meal Salad
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			d, err := normalizeEnum("day", day, weekDays)
			if err != nil {
				return err
			}
			slot, err := normalizeEnum("meal-type", mealType, mealTypes)
			if err != nil {
				return err
			}
			parsed, err := parseMeals(meals)
			if err != nil {
				return err
			}
			update := api.MealUpdate{Day: d, MealType: slot, Meals: parsed}

			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.planID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update-meal",
				Resource:  "plan",
				Method:    "PUT",
				Path:      s.client.Endpoints.PlanMeals(id),
				Details:   map[string]any{"day": d, "mealType": slot, "meals": parsed},
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Plans().UpdateMeal(ctx, id, update, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyPlans)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "plan", id, fmt.Sprintf("%s %s (%d dishes)", d, slot, len(parsed)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&day, "day", "", "Day of week")
	cmd.Flags().StringVar(&mealType, "meal-type", "", "Meal slot: "+strings.Join(mealTypes, ", "))
	cmd.Flags().StringArrayVar(&meals, "meal", nil, "Dish as name[:calories] (repeatable)")
	flagAlias(cmd.Flags(), "meal-type", "slot")
	registerStaticCompletions(cmd, "day", weekDays)
	registerStaticCompletions(cmd, "meal-type", mealTypes)
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("meal-type")
	return cmd
}

// parseMeals reads "name[:calories]" entries. An empty list clears the slot.
func parseMeals(entries []string) ([]api.Meal, error) {
	meals := make([]api.Meal, 0, len(entries))
	for _, entry := range entries {
		name, cal, hasCal := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid --meal %q: name is empty", entry)
		}
		m := api.Meal{Name: name}
		if hasCal {
			n, err := strconv.Atoi(strings.TrimSpace(cal))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid --meal %q: calories must be a non-negative number", entry)
			}
			m.Calories = n
		}
		meals = append(meals, m)
	}
	return meals, nil
}

func newPlansFeatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Add or remove plan feature lines",
	}
	cmd.AddCommand(newPlansFeatureChangeCmd("add", "Add a feature line to a plan"))
	cmd.AddCommand(newPlansFeatureChangeCmd("remove", "Remove a feature line from a plan"))
	return cmd
}

func newPlansFeatureChangeCmd(action, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action + " <id|name> <feature>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			feature := strings.TrimSpace(args[1])
			if feature == "" {
				return fmt.Errorf("feature cannot be empty")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.planID(ctx, args[0])
			if err != nil {
				return err
			}
			method := "POST"
			if action == "remove" {
				method = "DELETE"
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: action + "-feature",
				Resource:  "plan",
				Method:    method,
				Path:      s.client.Endpoints.PlanFeatures(id),
				Details:   map[string]any{"feature": feature},
			}); ok || err != nil {
				return err
			}

			var res *api.Envelope[api.Plan]
			if action == "remove" {
				res, err = checked(s.client.Plans().RemoveFeature(ctx, id, feature, token))
			} else {
				res, err = checked(s.client.Plans().AddFeature(ctx, id, feature, token))
			}
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyPlans)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			verb := "Added feature to"
			if action == "remove" {
				verb = "Removed feature from"
			}
			printAction(cmd, verb, "plan", id, feature)
			return nil
		}),
	}
	return cmd
}
