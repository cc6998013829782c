package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coursemap/pkg/cache"
	cerrors "github.com/matzehuels/coursemap/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered artifact cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeCacheUnavailable, err, "no cache directory")
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many artifacts are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			entries, size, err := fc.Stats()
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeCacheUnavailable, err, "cannot read cache")
			}
			printKeyValue("Directory", fc.Dir())
			printKeyValue("Entries", fmt.Sprint(entries))
			printKeyValue("Size", formatBytes(size))
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd.Context(), redisURL)
		},
	}
	cmd.Flags().StringVar(&redisURL, "redis", "", "clear the Redis cache at this URL instead of the file cache")
	return cmd
}

func runCacheClear(ctx context.Context, redisURL string) error {
	if redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeCacheUnavailable, err, "cannot reach redis")
		}
		defer rc.Close()
		n, err := rc.Clear(ctx)
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeCacheUnavailable, err, "cannot clear redis cache")
		}
		printSuccess("Cleared %d cached artifacts", n)
		return nil
	}

	fc, err := openFileCache()
	if err != nil {
		return err
	}
	n, err := fc.Clear()
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeCacheUnavailable, err, "cannot clear cache")
	}
	if n == 0 {
		printInfo("Cache is empty")
		return nil
	}
	printSuccess("Cleared %d cached artifacts", n)
	printDetail("Directory: %s", fc.Dir())
	return nil
}

func openFileCache() (*cache.FileCache, error) {
	dir, err := cache.DefaultDir()
	if err == nil {
		var fc *cache.FileCache
		if fc, err = cache.NewFileCache(dir); err == nil {
			return fc, nil
		}
	}
	return nil, cerrors.Wrap(cerrors.ErrCodeCacheUnavailable, err, "no cache directory")
}

// formatBytes renders n as B, KB or MB.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
