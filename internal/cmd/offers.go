package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

var discountTypes = []string{api.DiscountPercentage, api.DiscountFlat}

func newOffersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "offers",
		Aliases: []string{"offer"},
		Short:   "Manage discount offers",
	}
	cmd.AddCommand(newOffersListCmd())
	cmd.AddCommand(newOffersGetCmd())
	cmd.AddCommand(newOffersCreateCmd())
	cmd.AddCommand(newOffersUpdateCmd())
	cmd.AddCommand(newOffersDeleteCmd())
	return cmd
}

func newOffersListCmd() *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List offers",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var offers []api.Offer
			if active {
				res, err := checked(s.client.Offers().Active(ctx, token))
				if err != nil {
					return err
				}
				offers = res.Data
			} else {
				offers, err = newCatalog(ctx, s, token).offers(ctx)
				if err != nil {
					return err
				}
			}
			s.trackRoute(cmd)
			if isJSON(cmd) {
				return printJSON(cmd, offers)
			}

			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(offers) == 0 {
				f.Empty("No offers found.")
				return nil
			}
			f.StartTable([]string{"ID", "TITLE", "DISCOUNT", "MIN ORDER", "VALID", "ACTIVE"})
			for _, o := range offers {
				f.Row(o.Key(), o.OfferTitle, discountLabel(o), outfmt.Money(o.MinOrderValue),
					validityLabel(o.ValidFrom, o.ValidTo), yesNo(o.IsActive))
			}
			return f.EndTable()
		}),
	}
	cmd.Flags().BoolVar(&active, "active", false, "Only offers running now")
	return cmd
}

func discountLabel(o api.Offer) string {
	if o.DiscountType == api.DiscountPercentage {
		label := fmt.Sprintf("%g%%", o.DiscountValue)
		if o.MaxDiscountAmount > 0 {
			label += " up to " + outfmt.Money(o.MaxDiscountAmount)
		}
		return label
	}
	return outfmt.Money(o.DiscountValue) + " off"
}

func validityLabel(from, to string) string {
	short := func(s string) string {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format("2006-01-02")
		}
		return firstNonEmpty(s, "?")
	}
	if from == "" && to == "" {
		return "-"
	}
	return short(from) + " → " + short(to)
}

func newOffersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|title>",
		Short: "Show one offer",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := newCatalog(ctx, s, token).offerID(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := checked(s.client.Offers().Get(ctx, id, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			o := res.Data
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "ID:\t%s\n", o.Key())
			_, _ = fmt.Fprintf(w, "Title:\t%s\n", o.OfferTitle)
			if o.OfferDescription != "" {
				_, _ = fmt.Fprintf(w, "Description:\t%s\n", o.OfferDescription)
			}
			_, _ = fmt.Fprintf(w, "Discount:\t%s\n", discountLabel(o))
			_, _ = fmt.Fprintf(w, "Min order:\t%s\n", outfmt.Money(o.MinOrderValue))
			_, _ = fmt.Fprintf(w, "Valid:\t%s\n", validityLabel(o.ValidFrom, o.ValidTo))
			_, _ = fmt.Fprintf(w, "Active:\t%s\n", yesNo(o.IsActive))
			if o.UsageLimit > 0 {
				_, _ = fmt.Fprintf(w, "Usage limit:\t%d (%d per customer)\n", o.UsageLimit, o.UsagePerUser)
			}
			if len(o.ApplicableCategories) > 0 {
				_, _ = fmt.Fprintf(w, "Categories:\t%s\n", strings.Join(o.ApplicableCategories, ", "))
			}
			if len(o.ApplicableItems) > 0 {
				_, _ = fmt.Fprintf(w, "Items:\t%s\n", strings.Join(o.ApplicableItems, ", "))
			}
			if o.TermsAndConditions != "" {
				_, _ = fmt.Fprintf(w, "Terms:\t%s\n", o.TermsAndConditions)
			}
			if o.OfferImage != "" {
				_, _ = fmt.Fprintf(w, "Image:\t%s\n", o.OfferImage)
			}
			return w.Flush()
		}),
	}
}

type offerFlags struct {
	title        string
	description  string
	discountType string
	value        string
	minOrder     string
	maxDiscount  string
	usageLimit   int
	usagePerUser int
	validFrom    string
	validTo      string
	active       bool
	categories   []string
	items        []string
	terms        string
	image        string
}

func (f *offerFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "Offer title")
	fs.StringVar(&f.description, "description", "", "Offer description")
	fs.StringVar(&f.discountType, "discount-type", "", "percentage or flat")
	fs.StringVar(&f.value, "value", "", "Discount value (percent or rupees)")
	fs.StringVar(&f.minOrder, "min-order", "", "Minimum order value in rupees")
	fs.StringVar(&f.maxDiscount, "max-discount", "", "Maximum discount in rupees")
	fs.IntVar(&f.usageLimit, "usage-limit", 0, "Total redemptions allowed")
	fs.IntVar(&f.usagePerUser, "usage-per-user", 0, "Redemptions allowed per customer")
	fs.StringVar(&f.validFrom, "from", "", "Start date (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&f.validTo, "to", "", "End date (YYYY-MM-DD or RFC 3339)")
	fs.BoolVar(&f.active, "active", true, "Offer is active")
	fs.StringSliceVar(&f.categories, "categories", nil, "Applicable categories (names or IDs)")
	fs.StringSliceVar(&f.items, "items", nil, "Applicable items (names or IDs)")
	fs.StringVar(&f.terms, "terms", "", "Terms and conditions")
	fs.StringVar(&f.image, "image", "", "Image file path or https URL")
	flagAlias(fs, "description", "desc")
	flagAlias(fs, "discount-type", "type")
	flagAlias(fs, "image", "img")
	registerStaticCompletions(cmd, "discount-type", discountTypes)
}

var offerFieldFlags = []string{
	"title", "description", "discount-type", "value", "min-order", "max-discount",
	"usage-limit", "usage-per-user", "from", "to", "active", "categories", "items", "terms", "image",
}

// parseOfferDate accepts a calendar date or a full RFC 3339 timestamp and
// returns RFC 3339. endOfDay pushes a bare date to 23:59:59.
func parseOfferDate(flag, value string, endOfDay bool) (string, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return "", fmt.Errorf("invalid --%s %q: use YYYY-MM-DD", flag, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.UTC().Format(time.RFC3339), nil
}

func parseMoneyFlag(cmd *cobra.Command, flag, value string) (*float64, error) {
	if !flagOrAliasChanged(cmd, flag) {
		return nil, nil
	}
	d, err := validation.ParsePrice(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	v := d.InexactFloat64()
	return &v, nil
}

// build converts flags into an OfferInput. existingType is the offer's
// current discount type on update so --value can be range checked.
func (f *offerFlags) build(ctx context.Context, cmd *cobra.Command, cat *catalog, existingType string) (api.OfferInput, []string, error) {
	var in api.OfferInput
	var err error
	if flagOrAliasChanged(cmd, "title") {
		title := strings.TrimSpace(f.title)
		if err := validation.ValidateName(title); err != nil {
			return in, nil, fmt.Errorf("--title: %w", err)
		}
		in.Title = &title
	}
	if flagOrAliasChanged(cmd, "description") {
		if err := validation.ValidateDescription(f.description); err != nil {
			return in, nil, err
		}
		in.Description = &f.description
	}
	discountType := existingType
	if flagOrAliasChanged(cmd, "discount-type") {
		discountType, err = normalizeEnum("discount-type", f.discountType, discountTypes)
		if err != nil {
			return in, nil, err
		}
		in.DiscountType = &discountType
	}
	if flagOrAliasChanged(cmd, "value") {
		var v float64
		if discountType == api.DiscountPercentage {
			d, err := validation.ParsePercent(f.value)
			if err != nil {
				return in, nil, fmt.Errorf("--value: %w", err)
			}
			v = d.InexactFloat64()
		} else {
			d, err := validation.ParsePrice(f.value)
			if err != nil {
				return in, nil, fmt.Errorf("--value: %w", err)
			}
			v = d.InexactFloat64()
		}
		in.DiscountValue = &v
	}
	if in.MinOrderValue, err = parseMoneyFlag(cmd, "min-order", f.minOrder); err != nil {
		return in, nil, err
	}
	if in.MaxDiscountAmount, err = parseMoneyFlag(cmd, "max-discount", f.maxDiscount); err != nil {
		return in, nil, err
	}
	if f.usageLimit < 0 || f.usagePerUser < 0 {
		return in, nil, fmt.Errorf("usage limits cannot be negative")
	}
	in.UsageLimit = intPtrIfChanged(cmd, "usage-limit", f.usageLimit)
	in.UsagePerUser = intPtrIfChanged(cmd, "usage-per-user", f.usagePerUser)
	if flagOrAliasChanged(cmd, "from") {
		v, err := parseOfferDate("from", f.validFrom, false)
		if err != nil {
			return in, nil, err
		}
		in.ValidFrom = &v
	}
	if flagOrAliasChanged(cmd, "to") {
		v, err := parseOfferDate("to", f.validTo, true)
		if err != nil {
			return in, nil, err
		}
		in.ValidTo = &v
	}
	if in.ValidFrom != nil && in.ValidTo != nil && *in.ValidTo < *in.ValidFrom {
		return in, nil, fmt.Errorf("--to must not be before --from")
	}
	in.IsActive = boolPtrIfChanged(cmd, "active", f.active)
	in.TermsAndConditions = stringPtrIfChanged(cmd, "terms", f.terms)

	if flagOrAliasChanged(cmd, "categories") {
		in.ApplicableCategories = []string{}
		if cat != nil {
			ids, err := resolveAll(ctx, f.categories, cat.categoryID)
			if err != nil {
				return in, nil, fmt.Errorf("--categories: %w", err)
			}
			in.ApplicableCategories = ids
		} else {
			in.ApplicableCategories = append(in.ApplicableCategories, f.categories...)
		}
	}
	if flagOrAliasChanged(cmd, "items") {
		in.ApplicableItems = []string{}
		if cat != nil {
			ids, err := resolveAll(ctx, f.items, cat.itemID)
			if err != nil {
				return in, nil, fmt.Errorf("--items: %w", err)
			}
			in.ApplicableItems = ids
		} else {
			in.ApplicableItems = append(in.ApplicableItems, f.items...)
		}
	}

	image, files, err := parseImageFlag(cmd, f.image)
	if err != nil {
		return in, nil, err
	}
	in.Image = image
	return in, files, nil
}

func newOffersCreateCmd() *cobra.Command {
	f := &offerFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an offer",
		Example: strings.TrimSpace(`
  mangiee offers create --title "Weekend 20" --discount-type percentage --value 20 \
    --max-discount 100 --from 2026-11-01 --to 2026-11-30
  mangiee offers create --title "Flat 50" --type flat --value 50 --min-order 299 --image ./banner.png
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			for _, required := range []string{"title", "discount-type", "value"} {
				if !flagOrAliasChanged(cmd, required) {
					return fmt.Errorf("--%s is required", required)
				}
			}
			ctx := cmd.Context()
			if dryrun.IsEnabled(ctx) {
				in, files, err := f.build(ctx, cmd, nil, "")
				if err != nil {
					return err
				}
				_, err = maybeDryRun(cmd, &dryrun.Preview{
					Operation: "create",
					Resource:  "offer",
					Method:    "POST",
					Path:      previewEndpoints().OfferCreate(),
					Multipart: in.Image.IsLocal(),
					Details:   changedDetails(cmd, offerFieldFlags...),
					Files:     files,
				})
				return err
			}

			s, token, err := authed()
			if err != nil {
				return err
			}
			cat := newCatalog(ctx, s, token)
			in, _, err := f.build(ctx, cmd, cat, "")
			if err != nil {
				return err
			}
			if in.IsActive == nil {
				active := true
				in.IsActive = &active
			}
			res, err := checked(s.client.Offers().Create(ctx, in, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyOffers)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Created", "offer", res.Data.Key(), res.Data.OfferTitle)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newOffersUpdateCmd() *cobra.Command {
	f := &offerFlags{}
	cmd := &cobra.Command{
		Use:   "update <id|title>",
		Short: "Update an offer",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if !anyFlagChanged(cmd, offerFieldFlags...) {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.offerID(ctx, args[0])
			if err != nil {
				return err
			}

			existingType := ""
			if flagOrAliasChanged(cmd, "value") && !flagOrAliasChanged(cmd, "discount-type") {
				current, err := checked(s.client.Offers().Get(ctx, id, token))
				if err != nil {
					return err
				}
				existingType = current.Data.DiscountType
			}
			in, files, err := f.build(ctx, cmd, cat, existingType)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "offer",
				Method:    api.ImageMethod("PUT", in.Image),
				Path:      s.client.Endpoints.Offer(id),
				Multipart: in.Image.IsLocal(),
				Details:   changedDetails(cmd, offerFieldFlags...),
				Files:     files,
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Offers().Update(ctx, id, in, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyOffers)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "offer", id, res.Data.OfferTitle)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newOffersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|title>",
		Aliases: []string{"rm"},
		Short:   "Delete an offer",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.offerID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "delete",
				Resource:  "offer",
				Method:    "DELETE",
				Path:      s.client.Endpoints.Offer(id),
			}); ok || err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete offer %s? (y/N): ", args[0]),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !ok {
				return err
			}
			if _, err := checked(s.client.Offers().Delete(ctx, id, token)); err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyOffers)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"deleted": true, "id": id})
			}
			printAction(cmd, "Deleted", "offer", id, "")
			return nil
		}),
	}
}
