package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/view"
	"github.com/matzehuels/coursemap/pkg/widget"
)

const svgCSS = `
    .link { fill: none; stroke: #8a8f98; stroke-width: 2; }
    .node rect { fill: #ffffff; stroke: #4a4f57; stroke-width: 1.5; }
    .node.selected rect { stroke: #1a73e8; stroke-width: 3; }
    .node.dragging { opacity: 0.7; }
    .node .header { font: bold 15px sans-serif; fill: #1f2328; }
    .node .body { font: 14px sans-serif; fill: #4a4f57; }
    .node .icon { font: 18px sans-serif; fill: #4a4f57; }
    .end circle { fill: #4a4f57; }
    .end text { font: bold 12px sans-serif; fill: #ffffff; }
    .badge circle { fill: #c0392b; }
    .badge text { font: bold 13px sans-serif; fill: #ffffff; }
    .trash rect { fill: #fbe9e7; stroke: #c0392b; stroke-dasharray: 6 4; }
    .trash text { font: 13px sans-serif; fill: #c0392b; }
    .ghost rect { fill: #f1f3f4; stroke: #1a73e8; stroke-dasharray: 6 4; }
    .node.highlight rect { stroke-width: 3; }`

const svgJS = `
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('mouseenter', () => el.classList.add('highlight'));
      el.addEventListener('mouseleave', () => el.classList.remove('highlight'));
    });`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title       string
	screen      bool
	interactive bool
	padding     float64
}

// WithTitle adds a <title> element.
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// WithScreenSpace draws the viewport as the user sees it.
func WithScreenSpace() SVGOption { return func(r *svgRenderer) { r.screen = true } }

// WithInteraction embeds hover highlighting.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// WithPadding sets the model-space margin around the content (default 20).
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// RenderSVG draws the scene as a standalone SVG document.
func RenderSVG(sc widget.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{padding: 20}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := r.size(sc)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgCSS)

	rects := make(map[diagram.NodeID]view.Rect, len(sc.Glyphs))
	for _, g := range sc.Glyphs {
		rects[g.ID] = r.rect(g)
	}
	for _, l := range sc.Links {
		src, okS := rects[l.Source]
		dst, okD := rects[l.Target]
		if okS && okD {
			renderLink(&buf, l, src, dst)
		}
	}
	for _, g := range sc.Glyphs {
		renderGlyph(&buf, g, rects[g.ID])
	}
	if sc.Trash != nil && r.screen {
		renderTrash(&buf, *sc.Trash)
	}
	if sc.Ghost != nil {
		renderGhost(&buf, *sc.Ghost, r.rect(*sc.Ghost))
	}
	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", svgJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) size(sc widget.Scene) (w, h float64) {
	if r.screen {
		return math.Max(1, sc.View.Width), math.Max(1, sc.View.Height)
	}
	return sc.Layout.Width + 2*r.padding, sc.Layout.Height + 2*r.padding
}

func (r svgRenderer) rect(g widget.Glyph) view.Rect {
	if r.screen {
		return g.Screen
	}
	m := g.Model
	m.X += r.padding
	m.Y += r.padding
	return m
}

// renderLink draws a curve between two nodes: sideways within a row, top
// to bottom when the target sits below the source.
func renderLink(buf *bytes.Buffer, l diagram.Link, src, dst view.Rect) {
	var x1, y1, x2, y2, c1x, c1y, c2x, c2y float64
	if dst.Y >= src.Y+src.H {
		x1, y1 = src.X+src.W/2, src.Y+src.H
		x2, y2 = dst.X+dst.W/2, dst.Y
		mid := (y1 + y2) / 2
		c1x, c1y, c2x, c2y = x1, mid, x2, mid
	} else {
		x1, y1 = src.X+src.W, src.Y+src.H/2
		x2, y2 = dst.X, dst.Y+dst.H/2
		mid := (x1 + x2) / 2
		c1x, c1y, c2x, c2y = mid, y1, mid, y2
	}
	fmt.Fprintf(buf, `  <path id="link-%d" class="link" d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f"/>`+"\n",
		l.Target, x1, y1, c1x, c1y, c2x, c2y, x2, y2)
}

func renderGlyph(buf *bytes.Buffer, g widget.Glyph, r view.Rect) {
	if g.Kind == diagram.KindEndMarker.String() {
		cx, cy, radius := r.X+r.W/2, r.Y+r.H/2, math.Min(r.W, r.H)/2
		fmt.Fprintf(buf, `  <g id="node-%d" class="end">`+"\n", g.ID)
		fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, radius)
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			cx, cy, escapeXML(g.Header))
		buf.WriteString("  </g>\n")
		return
	}

	class := g.Class
	if g.Dragging {
		class += " dragging"
	}
	fmt.Fprintf(buf, `  <g id="node-%d" class="%s">`+"\n", g.ID, class)
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8"/>`+"\n", r.X, r.Y, r.W, r.H)
	renderText(buf, g, r)
	if g.Badge {
		bx, by := r.X+r.W-4, r.Y+4
		buf.WriteString(`    <g class="badge">` + "\n")
		fmt.Fprintf(buf, `      <circle cx="%.1f" cy="%.1f" r="10"/>`+"\n", bx, by)
		fmt.Fprintf(buf, `      <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">!</text>`+"\n", bx, by)
		buf.WriteString("    </g>\n")
	}
	buf.WriteString("  </g>\n")
}

func renderText(buf *bytes.Buffer, g widget.Glyph, r view.Rect) {
	left := r.X + 12
	if g.Icon != "" {
		fmt.Fprintf(buf, `    <text class="icon" x="%.1f" y="%.1f">%s</text>`+"\n", left, r.Y+28, escapeXML(g.Icon))
		left += 24
	}
	fmt.Fprintf(buf, `    <text class="header" x="%.1f" y="%.1f">%s</text>`+"\n", left, r.Y+28, escapeXML(g.Header))
	if g.Body != "" {
		fmt.Fprintf(buf, `    <text class="body" x="%.1f" y="%.1f">%s</text>`+"\n", r.X+12, r.Y+r.H/2+18, escapeXML(g.Body))
	}
}

func renderTrash(buf *bytes.Buffer, r view.Rect) {
	buf.WriteString(`  <g class="trash">` + "\n")
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6"/>`+"\n", r.X, r.Y, r.W, r.H)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">Delete</text>`+"\n",
		r.X+r.W/2, r.Y+r.H/2)
	buf.WriteString("  </g>\n")
}

func renderGhost(buf *bytes.Buffer, g widget.Glyph, r view.Rect) {
	buf.WriteString(`  <g class="node ghost">` + "\n")
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8"/>`+"\n", r.X, r.Y, r.W, r.H)
	renderText(buf, g, r)
	buf.WriteString("  </g>\n")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
