package widget

import (
	"fmt"
	"strings"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/layout"
	"github.com/matzehuels/coursemap/pkg/reconcile"
	"github.com/matzehuels/coursemap/pkg/selection"
	"github.com/matzehuels/coursemap/pkg/view"
)

// EndMarkerLabel is the header shown on the end marker.
const EndMarkerLabel = "End"

// Glyph is one node as a renderer draws it.
type Glyph struct {
	ID     diagram.NodeID `json:"id"`
	Parent diagram.NodeID `json:"parent,omitempty"`
	Kind   string         `json:"kind"`
	Class  string         `json:"class"`
	Header string         `json:"header"`
	Body   string         `json:"body,omitempty"`
	Icon   string         `json:"icon,omitempty"`
	Badge  bool           `json:"badge,omitempty"`
	Row    int            `json:"row"`
	Depth  int            `json:"depth"`

	// Model is the node's rectangle in model space, Screen the same
	// rectangle after the view transform.
	Model  view.Rect `json:"model"`
	Screen view.Rect `json:"screen"`

	Dragging bool `json:"dragging,omitempty"`
}

// Scene is everything a renderer needs to draw one frame.
type Scene struct {
	Glyphs []Glyph          `json:"nodes"`
	Links  []diagram.Link   `json:"links"`
	View   view.Snapshot    `json:"view"`
	Layout layout.Result    `json:"layout"`
	Trash  *view.Rect       `json:"trash,omitempty"`
	Ghost  *Glyph           `json:"ghost,omitempty"` // external drag preview
	Diff   reconcile.Result `json:"-"`

	ReadOnly bool `json:"read_only,omitempty"`
}

// Frame describes the current state for rendering. Display strings are
// derived fresh from the payloads on every call.
func (w *Widget) Frame() Scene {
	classes := w.sel.Classes()
	pinned := w.drag.Pinned()
	nodes := w.d.Nodes()

	sc := Scene{
		Glyphs:   make([]Glyph, 0, len(nodes)),
		Links:    w.d.Links(),
		View:     w.view.Snapshot(),
		Layout:   w.lay,
		Diff:     w.last,
		ReadOnly: w.readOnly,
	}
	if w.opts.Trash.W > 0 && w.opts.Trash.H > 0 && !w.readOnly {
		trash := w.opts.Trash
		sc.Trash = &trash
	}
	for _, n := range nodes {
		g := w.glyph(n)
		g.Class = classes[n.ID]
		g.Dragging = n.ID == pinned
		sc.Glyphs = append(sc.Glyphs, g)
	}
	if s, ok := w.drag.Session(); ok && s.External() {
		cfg := w.opts.Layout
		model := view.Rect{X: s.X, Y: s.Y, W: cfg.NodeWidth, H: cfg.NodeHeight}
		sc.Ghost = &Glyph{
			Kind:     diagram.KindTransition.String(),
			Class:    selection.ClassNode,
			Header:   w.header(s.Payload),
			Body:     w.name(s.Payload),
			Icon:     w.desc.TypeIcon(s.Payload),
			Model:    model,
			Screen:   w.view.ScreenRect(model),
			Dragging: true,
		}
	}
	return sc
}

func (w *Widget) glyph(n *diagram.Node) Glyph {
	model := view.Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height}
	g := Glyph{
		ID:     n.ID,
		Kind:   n.Kind.String(),
		Row:    n.Row,
		Depth:  n.Depth,
		Model:  model,
		Screen: w.view.ScreenRect(model),
	}
	if p := n.Parent(); p != nil {
		g.Parent = p.ID
	}
	if n.IsEndMarker() {
		g.Header = EndMarkerLabel
		return g
	}
	g.Header = w.header(n.Payload)
	g.Body = w.name(n.Payload)
	g.Icon = w.desc.TypeIcon(n.Payload)
	g.Badge = w.overlay.HasError(g.Body)
	return g
}

func (w *Widget) header(p any) string {
	if s := strings.TrimSpace(w.desc.TypeDisplayName(p)); s != "" {
		return s
	}
	return Placeholder
}

// name is the display name validation results are keyed by.
func (w *Widget) name(p any) string {
	if s := strings.TrimSpace(w.desc.TransitionName(p)); s != "" {
		return s
	}
	return Placeholder
}

// plainDescriber is used when no Describer is configured: payloads are
// shown with their default formatting.
type plainDescriber struct{}

func (plainDescriber) TypeDisplayName(any) string  { return "" }
func (plainDescriber) TransitionName(p any) string { return fmt.Sprint(p) }
func (plainDescriber) TypeIcon(any) string         { return "" }
func (plainDescriber) OwnsResources(any) bool      { return false }
