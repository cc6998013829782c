// Package render turns a diagram scene into output documents.
//
// # Overview
//
// Every renderer consumes a [widget.Scene], the renderer-independent
// description of one frame produced by [widget.Widget.Frame]. The same scene
// can be drawn by several backends:
//
//   - [RenderSVG]: a native SVG of the row-wrapped layout, with selection
//     classes, validation badges, the trash target and drag ghosts
//   - [ToDOT] and [RenderGraphviz]: a Graphviz node-link view, as DOT text
//     or rendered to SVG/PNG through go-graphviz
//   - [RenderMermaid]: a Mermaid flowchart for embedding in Markdown
//   - [RenderJSON]: the scene itself, for web front ends
//
// [Render] dispatches on a [Format]:
//
//	scene := w.Frame()
//	svg, err := render.Render(ctx, scene, render.FormatSVG, render.Options{Title: c.Title})
//
// # Coordinates
//
// By default the native SVG is drawn in model space and sized to the layout's
// content. [WithScreenSpace] draws what the viewport shows instead: the zoom
// and scroll of the view transform applied, clipped to the viewport size.
package render
