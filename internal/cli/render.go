package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coursemap/pkg/cache"
	cerrors "github.com/matzehuels/coursemap/pkg/errors"
	"github.com/matzehuels/coursemap/pkg/render"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	view        viewOpts
	cache       cacheOpts
	output      string
	format      string
	title       string
	screen      bool
	interactive bool
	direction   string
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:               "render [document]",
		Short:             "Render a course document",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: documentArgs,
		Example: `  coursemap render course.toml -o course.svg
  coursemap render course.yaml -f png --width 800
  coursemap render course.json -f mermaid > course.mmd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	opts.view.register(cmd, false)
	opts.cache.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout, or <document>.png for png)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(render.FormatSVG), "output format: "+formatList())
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title (default: the course title)")
	cmd.Flags().BoolVar(&opts.screen, "screen", false, "svg: draw the viewport as displayed instead of the whole course")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "svg: embed hover highlighting")
	cmd.Flags().StringVar(&opts.direction, "direction", string(render.DirectionTD), "mermaid: flow direction, TD or LR")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(render.Formats))
		for i, f := range render.Formats {
			out[i] = string(f)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func formatList() string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func runRender(ctx context.Context, stdout io.Writer, path string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	sw := startStopwatch(logger)

	if err := opts.view.validate(); err != nil {
		return err
	}
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return classify(err)
	}
	c, raw, err := loadDocument(path)
	if err != nil {
		return err
	}
	title := opts.title
	if title == "" {
		title = c.Title
	}

	store := openCache(ctx, opts.cache)
	defer store.Close()
	key := newKeyer().ArtifactKey(cache.Hash(raw), cache.ArtifactKeyOpts{
		Format:    string(format),
		Variant:   fmt.Sprintf("dir=%s screen=%t interactive=%t", opts.direction, opts.screen, opts.interactive),
		Width:     opts.view.width,
		Height:    opts.view.height,
		Zoom:      opts.view.zoom,
		EndMarker: c.EndMarker && !opts.view.noEndMarker,
		Title:     title,
	})

	data, cached, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
	}
	nodes, rows := 0, 0
	if !cached {
		var spin *Spinner
		if format == render.FormatPNG || format == render.FormatGraphviz {
			spin = newSpinner(ctx, "Laying out with Graphviz...").Start()
		}
		w := newWidget(c, opts.view, logger, filepath.Dir(path), widget.Options{})
		scene := w.Frame()
		nodes, rows = len(scene.Glyphs), scene.Layout.Rows
		data, err = render.Render(ctx, scene, format, render.Options{
			Title:       title,
			Screen:      opts.screen,
			Interactive: opts.interactive,
			Direction:   render.Direction(strings.ToUpper(opts.direction)),
		})
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInternal, err, "render %s", format)
		}
		if err := store.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			logger.Warn("cache write failed", "err", err)
		}
		logger.Debug("rendered", "format", format, "nodes", nodes, "rows", rows, "bytes", len(data))
	}

	out := opts.output
	if out == "" && format == render.FormatPNG {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	if out == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInternal, err, "cannot write %s", out)
	}

	sw.report("rendered", "file", filepath.Base(out), "format", format)
	printSuccess("Rendered %s", StyleHighlight.Render(c.Title))
	printFile(out)
	printStats(nodes, rows, cached)
	printNextStep("Preview live", fmt.Sprintf("%s serve %s", appName, path))
	return nil
}
