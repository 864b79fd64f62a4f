package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage the catalog cache",
		Long: strings.TrimSpace(`
Category, item, offer and plan listings are cached so that names can be
resolved without a request per lookup. Entries expire after MANGIEE_CACHE_TTL
and are dropped whenever a command changes the resource.
`),
	}
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop cached listings for the active profile",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store := s.cacheStore(ctx)
			if err := store.ClearAll(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			backend := cacheBackendName(store)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"cleared": true, "backend": backend, "profile": s.profile})
			}
			printText(cmd, "Cache cleared (%s, profile %s)\n", backend, s.profile)
			return nil
		}),
	}
}

func cacheBackendName(store cache.Store) string {
	switch store.(type) {
	case *cache.RedisStore:
		return "redis"
	case *cache.FileStore:
		return "disk"
	default:
		return "disabled"
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory and its entries",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("could not determine cache directory: %w", err)
			}

			type entry struct {
				Name string `json:"name"`
				Size int64  `json:"size"`
			}
			var entries []entry
			files, err := os.ReadDir(dir)
			if err == nil {
				for _, f := range files {
					if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
						continue
					}
					info, err := f.Info()
					if err != nil {
						continue
					}
					entries = append(entries, entry{Name: f.Name(), Size: info.Size()})
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"path": dir, "entries": entries})
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, dir)
			for _, e := range entries {
				_, _ = fmt.Fprintf(out, "  %s (%d bytes)\n", e.Name, e.Size)
			}
			return nil
		}),
	}
}
