package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/iocontext"
	"github.com/mangiee/restaurant-cli/internal/outfmt"
)

func newEndpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "endpoints [name]",
		Aliases: []string{"urls"},
		Short:   "Show the resolved API endpoint table",
		Long: strings.TrimSpace(`
Print the absolute URL of every named backend operation for the configured
origin. Only the origin changes with --api-url, MANGIEE_API_URL or
EXPO_PUBLIC_API_URL; the paths are fixed.
`),
		Example: strings.TrimSpace(`
  mangiee endpoints
  mangiee endpoints verifyOTP
  mangiee endpoints --api-url http://localhost:5000 -o json
`),
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return previewEndpoints().Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ep := previewEndpoints()
			if len(args) == 1 {
				u, ok := ep.Lookup(args[0])
				if !ok {
					if s := suggestCommand(args[0], ep.Names()); s != "" {
						return fmt.Errorf("unknown endpoint %q (did you mean %q?)", args[0], s)
					}
					return fmt.Errorf("unknown endpoint %q", args[0])
				}
				if isJSON(cmd) {
					return printJSON(cmd, map[string]string{"name": args[0], "url": u})
				}
				printText(cmd, "%s\n", u)
				return nil
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"origin": ep.Origin(), "endpoints": ep.All()})
			}
			ctx := cmd.Context()
			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			printText(cmd, "Origin: %s\n\n", ep.Origin())
			f.StartTable([]string{"NAME", "URL"})
			all := ep.All()
			for _, name := range ep.Names() {
				f.Row(name, all[name])
			}
			return f.EndTable()
		}),
	}
	return cmd
}
