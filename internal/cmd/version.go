package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var result *update.CheckResult
			if check {
				result = update.CheckForUpdate(cmd.Context(), update.ReleaseStore(), version)
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"version": version,
					"go":      runtime.Version(),
				}
				if result != nil {
					payload["latest"] = result.LatestVersion
					payload["update_available"] = result.UpdateAvailable
					payload["update_url"] = result.UpdateURL
					if !result.PublishedAt.IsZero() {
						payload["published_at"] = result.PublishedAt.Format(time.RFC3339)
					}
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mangiee-cli version %s\n", version)
			if result != nil && result.UpdateAvailable {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "\nUpdate available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
				if !result.PublishedAt.IsZero() {
					_, _ = fmt.Fprintf(errOut, "Released: %s\n", result.PublishedAt.Format("2 Jan 2006"))
				}
				_, _ = fmt.Fprintf(errOut, "Download: %s\n", result.UpdateURL)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}
