package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// ToDOT converts a scene to Graphviz DOT. Nodes sharing a layout row are
// kept on the same rank so the output mirrors the row-wrapped layout.
func ToDOT(sc widget.Scene, title string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [color=\"#8a8f98\"];\n")
	if title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", title)
	}
	buf.WriteString("\n")

	rows := make(map[int][]string)
	for _, g := range sc.Glyphs {
		name := nodeName(g)
		rows[g.Row] = append(rows[g.Row], name)
		if g.Kind == diagram.KindEndMarker.String() {
			fmt.Fprintf(&buf, "  %s [label=%q, shape=circle, fillcolor=\"#4a4f57\", fontcolor=white];\n", name, g.Header)
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", label(g))}
		if strings.Contains(g.Class, "selected") {
			attrs = append(attrs, `color="#1a73e8"`, "penwidth=3")
		}
		if g.Badge {
			attrs = append(attrs, `fillcolor="#fbe9e7"`)
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", name, strings.Join(attrs, ", "))
	}

	if len(rows) > 0 {
		buf.WriteString("\n")
	}
	keys := make([]int, 0, len(rows))
	for r := range rows {
		keys = append(keys, r)
	}
	sort.Ints(keys)
	for _, r := range keys {
		if len(rows[r]) > 1 {
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(rows[r], "; "))
		}
	}

	if len(sc.Links) > 0 {
		buf.WriteString("\n")
	}
	for _, l := range sc.Links {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", l.Source, l.Target)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderGraphviz lays the scene out with Graphviz and renders it. format is
// typically graphviz.SVG or graphviz.PNG.
func RenderGraphviz(ctx context.Context, sc widget.Scene, format graphviz.Format, title string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.TBRank)
	if title != "" {
		graph.SetLabel(title)
	}

	nodes := make(map[diagram.NodeID]*cgraph.Node, len(sc.Glyphs))
	for _, g := range sc.Glyphs {
		n, err := graph.CreateNodeByName(nodeName(g))
		if err != nil {
			return nil, fmt.Errorf("create node %d: %w", g.ID, err)
		}
		n.SetLabel(label(g))
		styleNode(n, g)
		nodes[g.ID] = n
	}
	for _, l := range sc.Links {
		src, dst := nodes[l.Source], nodes[l.Target]
		if src == nil || dst == nil {
			continue
		}
		if _, err := graph.CreateEdgeByName("", src, dst); err != nil {
			return nil, fmt.Errorf("create edge %d->%d: %w", l.Source, l.Target, err)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	if format == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

func styleNode(n *cgraph.Node, g widget.Glyph) {
	if g.Kind == diagram.KindEndMarker.String() {
		n.SetShape(cgraph.CircleShape)
		n.SetStyle(cgraph.FilledNodeStyle)
		n.SetFillColor("#4a4f57")
		n.SetFontColor("white")
		return
	}
	n.SetShape(cgraph.BoxShape)
	n.SetStyle(cgraph.FilledNodeStyle)
	n.SetFillColor("white")
	if g.Badge {
		n.SetFillColor("#fbe9e7")
	}
	if strings.Contains(g.Class, "selected") {
		n.SetColor("#1a73e8")
		n.SetPenWidth(3)
	}
}

var (
	svgOpenRe = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="[-0-9.]+\s+[-0-9.]+\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's <svg> tag, which carries pt units and
// a transform-dependent origin, with a plain pixel-sized one.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[1]), 64)
	h, _ := strconv.ParseFloat(string(m[2]), 64)
	if w <= 0 || h <= 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgOpenRe.ReplaceAll(svg, []byte(tag))
}
