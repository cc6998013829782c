package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/coursemap/pkg/widget"
)

// ErrUnknownFormat is returned for output formats without a renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is an output format.
type Format string

const (
	FormatSVG      Format = "svg"      // native SVG
	FormatGraphviz Format = "graphviz" // SVG laid out by Graphviz
	FormatPNG      Format = "png"      // PNG laid out by Graphviz
	FormatDOT      Format = "dot"
	FormatMermaid  Format = "mermaid"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatGraphviz, FormatPNG, FormatDOT, FormatMermaid, FormatJSON}

// ParseFormat resolves a format name. "mmd" is accepted for Mermaid and
// "gv" for Graphviz.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "mmd":
		return FormatMermaid, nil
	case "gv":
		return FormatGraphviz, nil
	case FormatSVG, FormatGraphviz, FormatPNG, FormatDOT, FormatMermaid, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatGraphviz:
		return "svg"
	case FormatMermaid:
		return "mmd"
	}
	return string(f)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG, FormatGraphviz:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Options are the settings shared by all formats. Fields a format has no
// use for are ignored.
type Options struct {
	Title       string
	Screen      bool // native SVG: draw the viewport instead of the whole content
	Interactive bool // native SVG: hover highlighting script
	Direction   Direction
}

// Render draws sc in the given format.
func Render(ctx context.Context, sc widget.Scene, f Format, opts Options) ([]byte, error) {
	switch f {
	case FormatSVG:
		svgOpts := []SVGOption{WithTitle(opts.Title)}
		if opts.Screen {
			svgOpts = append(svgOpts, WithScreenSpace())
		}
		if opts.Interactive {
			svgOpts = append(svgOpts, WithInteraction())
		}
		return RenderSVG(sc, svgOpts...), nil
	case FormatGraphviz:
		return RenderGraphviz(ctx, sc, graphviz.SVG, opts.Title)
	case FormatPNG:
		return RenderGraphviz(ctx, sc, graphviz.PNG, opts.Title)
	case FormatDOT:
		return []byte(ToDOT(sc, opts.Title)), nil
	case FormatMermaid:
		return []byte(RenderMermaid(sc, opts.Title, opts.Direction)), nil
	case FormatJSON:
		return RenderJSON(sc, opts.Title)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// label is the two-line node label used by the text formats.
func label(g widget.Glyph) string {
	if g.Body == "" {
		return g.Header
	}
	head := g.Header
	if g.Icon != "" {
		head = g.Icon + " " + head
	}
	return head + "\n" + g.Body
}

func nodeName(g widget.Glyph) string { return fmt.Sprintf("n%d", g.ID) }
