package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage menu categories",
	}
	cmd.AddCommand(newCategoriesListCmd())
	cmd.AddCommand(newCategoriesGetCmd())
	cmd.AddCommand(newCategoriesCreateCmd())
	cmd.AddCommand(newCategoriesUpdateCmd())
	cmd.AddCommand(newCategoriesDeleteCmd())
	return cmd
}

func newCategoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cats, err := newCatalog(ctx, s, token).categories(ctx)
			if err != nil {
				return err
			}
			s.trackRoute(cmd)
			if isJSON(cmd) {
				return printJSON(cmd, cats)
			}

			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(cats) == 0 {
				f.Empty("No categories found.")
				return nil
			}
			f.StartTable([]string{"ID", "NAME", "ITEMS", "DESCRIPTION"})
			for _, c := range cats {
				f.Row(c.Key(), c.Name, strconv.Itoa(c.ItemCount), truncate(c.Description, 50))
			}
			return f.EndTable()
		}),
	}
}

func newCategoriesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|name>",
		Short: "Show one category",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := newCatalog(ctx, s, token).categoryID(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := checked(s.client.Categories().Get(ctx, id, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			c := res.Data
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "ID:\t%s\n", c.Key())
			_, _ = fmt.Fprintf(w, "Name:\t%s\n", c.Name)
			if c.Description != "" {
				_, _ = fmt.Fprintf(w, "Description:\t%s\n", c.Description)
			}
			if c.Image != "" {
				_, _ = fmt.Fprintf(w, "Image:\t%s\n", c.Image)
			}
			_, _ = fmt.Fprintf(w, "Items:\t%d\n", c.ItemCount)
			return w.Flush()
		}),
	}
}

type categoryFlags struct {
	name        string
	description string
	image       string
}

func (cf *categoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cf.name, "name", "", "Category name")
	cmd.Flags().StringVar(&cf.description, "description", "", "Category description")
	cmd.Flags().StringVar(&cf.image, "image", "", "Image file path or https URL")
	flagAlias(cmd.Flags(), "description", "desc")
	flagAlias(cmd.Flags(), "image", "img")
}

func (cf *categoryFlags) build(cmd *cobra.Command) (api.CategoryInput, []string, error) {
	var in api.CategoryInput
	if flagOrAliasChanged(cmd, "name") {
		name := strings.TrimSpace(cf.name)
		if name == "" {
			return in, nil, fmt.Errorf("--name cannot be empty")
		}
		if err := validation.ValidateName(name); err != nil {
			return in, nil, err
		}
		in.Name = &name
	}
	if flagOrAliasChanged(cmd, "description") {
		if err := validation.ValidateDescription(cf.description); err != nil {
			return in, nil, err
		}
		in.Description = stringPtrIfChanged(cmd, "description", cf.description)
	}
	image, files, err := parseImageFlag(cmd, cf.image)
	if err != nil {
		return in, nil, err
	}
	in.Image = image
	return in, files, nil
}

// parseImageFlag turns --image into an ImageRef. A remote URL is validated;
// a local file is returned in files for dry-run previews.
func parseImageFlag(cmd *cobra.Command, value string) (*api.ImageRef, []string, error) {
	if !flagOrAliasChanged(cmd, "image") || strings.TrimSpace(value) == "" {
		return nil, nil, nil
	}
	ref, err := api.ParseImageRef(value)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --image: %w", err)
	}
	if !ref.IsLocal() {
		if err := validation.ValidateImageURL(ref.URL()); err != nil {
			return nil, nil, fmt.Errorf("invalid --image: %w", err)
		}
		return ref, nil, nil
	}
	return ref, []string{ref.Asset().Name}, nil
}

func newCategoriesCreateCmd() *cobra.Command {
	cf := &categoryFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Example: strings.TrimSpace(`
  mangiee categories create --name "Main Course" --image ./main.jpg
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			in, files, err := cf.build(cmd)
			if err != nil {
				return err
			}
			if in.Name == nil {
				return fmt.Errorf("--name is required")
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "category",
				Method:    "POST",
				Path:      previewEndpoints().Categories(),
				Multipart: in.Image.IsLocal(),
				Details:   map[string]any{"name": *in.Name},
				Files:     files,
			}); ok || err != nil {
				return err
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := checked(s.client.Categories().Create(ctx, in, token))
			if err != nil {
				return err
			}
			newCatalog(ctx, s, token).invalidate(ctx, cacheKeyCategories)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Created", "category", res.Data.Key(), res.Data.Name)
			return nil
		}),
	}
	cf.register(cmd)
	return cmd
}

func newCategoriesUpdateCmd() *cobra.Command {
	cf := &categoryFlags{}
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Update a category",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			in, files, err := cf.build(cmd)
			if err != nil {
				return err
			}
			if in.Name == nil && in.Description == nil && in.Image == nil {
				return fmt.Errorf("nothing to update: pass --name, --description or --image")
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.categoryID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "category",
				Method:    api.ImageMethod("PUT", in.Image),
				Path:      s.client.Endpoints.Category(id),
				Multipart: in.Image.IsLocal(),
				Details:   changedDetails(cmd, "name", "description"),
				Files:     files,
			}); ok || err != nil {
				return err
			}
			res, err := checked(s.client.Categories().Update(ctx, id, in, token))
			if err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyCategories, cacheKeyItems)
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "category", id, res.Data.Name)
			return nil
		}),
	}
	cf.register(cmd)
	return cmd
}

func newCategoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a category",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cat := newCatalog(ctx, s, token)
			id, err := cat.categoryID(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "delete",
				Resource:  "category",
				Method:    "DELETE",
				Path:      s.client.Endpoints.Category(id),
			}); ok || err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete category %s? (y/N): ", args[0]),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !ok {
				return err
			}
			if _, err := checked(s.client.Categories().Delete(ctx, id, token)); err != nil {
				return err
			}
			cat.invalidate(ctx, cacheKeyCategories, cacheKeyItems)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"deleted": true, "id": id})
			}
			printAction(cmd, "Deleted", "category", id, "")
			return nil
		}),
	}
}

// changedDetails collects the values of changed flags for previews.
func changedDetails(cmd *cobra.Command, names ...string) map[string]any {
	out := map[string]any{}
	for _, name := range names {
		if !flagOrAliasChanged(cmd, name) {
			continue
		}
		if f := cmd.Flags().Lookup(name); f != nil {
			out[name] = f.Value.String()
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
