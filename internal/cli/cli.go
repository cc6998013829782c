// Package cli implements the coursemap command-line interface.
//
// # Commands
//
//   - render: draw a course document as SVG, PNG, DOT, Mermaid or JSON
//   - edit: open the document in the terminal editor
//   - serve: serve a live preview over HTTP
//   - cache: inspect and clear the artifact cache
//   - completion: generate shell completions
//
// # Logging
//
// Every command supports --verbose (-v) for debug logging. The logger
// travels on the command context; see [loggerFromContext].
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coursemap/pkg/buildinfo"
	"github.com/matzehuels/coursemap/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

const (
	appName = "coursemap"

	defaultWidth  = 1200.0 // viewport width in pixels
	defaultHeight = 800.0  // viewport height in pixels
	defaultAddr   = "127.0.0.1:8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds state shared by all commands.
type CLI struct {
	Logger  *log.Logger
	verbose bool
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Coursemap draws and edits course flow diagrams",
		Long:          `Coursemap lays out a course's tree of steps as a row-wrapped diagram, renders it to SVG, PNG, DOT or Mermaid, and edits it interactively in the terminal or through a local preview server.`,
		Version:       buildinfo.Resolved(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Cache Factory
// =============================================================================

// cacheOpts are the cache flags shared by commands that render.
type cacheOpts struct {
	noCache  bool
	redisURL string
}

func (o *cacheOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&o.redisURL, "redis", "", "use the Redis server at this URL as artifact cache")
}

// openCache returns the configured cache. An unreachable Redis server or
// an unusable cache directory degrades to no caching with a warning.
func openCache(ctx context.Context, o cacheOpts) cache.Cache {
	logger := loggerFromContext(ctx)
	if o.noCache {
		return cache.NewNullCache()
	}
	if o.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, o.redisURL)
		if err != nil {
			logger.Warn("redis cache disabled", "err", err)
			return cache.NewNullCache()
		}
		return rc
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		logger.Warn("file cache disabled", "err", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("file cache disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// newKeyer scopes artifact keys by build so a new renderer never serves
// stale drawings.
func newKeyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Resolved()+":")
}
