// Package view converts between diagram model coordinates and viewport
// (screen) coordinates.
//
// A [Transform] holds the zoom scale and the vertical scroll offset. The
// translation is derived rather than stored: it keeps the root node's
// top-left corner at a fixed screen offset for every scale, so zooming never
// pushes the diagram's origin off screen or under fixed chrome.
package view

import "math"

// Zoom limits and step.
const (
	MinScale     = 0.25
	MaxScale     = 3.0
	DefaultScale = 1.0
	ZoomStep     = 1.25
)

// Point is a 2D coordinate.
type Point struct{ X, Y float64 }

// Rect is an axis-aligned rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Transform is the zoom/pan state of a diagram viewport.
// The zero value is not usable - use [New].
type Transform struct {
	scale   float64
	offset  Point // fixed screen position of the root's top-left corner
	origin  Point // model position of the root's top-left corner
	scrollY float64

	viewportW, viewportH float64
	contentH             float64 // unscaled
}

// New returns a transform at the default scale with the root pinned to
// the given screen offset.
func New(offset Point) *Transform {
	return &Transform{scale: DefaultScale, offset: offset}
}

// Scale returns the current zoom factor.
func (t *Transform) Scale() float64 { return t.scale }

// ScrollY returns the current vertical scroll offset in screen units.
func (t *Transform) ScrollY() float64 { return t.scrollY }

// Offset returns the fixed screen offset of the root.
func (t *Transform) Offset() Point { return t.offset }

// Viewport returns the viewport size in screen units.
func (t *Transform) Viewport() (w, h float64) { return t.viewportW, t.viewportH }

// SetScale clamps f to [MinScale, MaxScale] and applies it. Non-positive and
// NaN factors are ignored. It reports whether the scale changed, in which
// case the caller must re-run the layout since row capacity depends on it.
// The scroll offset is re-clamped to the new content extent.
func (t *Transform) SetScale(f float64) bool {
	if !(f > 0) {
		return false
	}
	f = math.Min(MaxScale, math.Max(MinScale, f))
	if f == t.scale {
		return false
	}
	t.scale = f
	t.PanTo(t.scrollY)
	return true
}

// ZoomIn multiplies the scale by ZoomStep.
func (t *Transform) ZoomIn() bool { return t.SetScale(t.scale * ZoomStep) }

// ZoomOut divides the scale by ZoomStep.
func (t *Transform) ZoomOut() bool { return t.SetScale(t.scale / ZoomStep) }

// Reset restores the default scale.
func (t *Transform) Reset() bool { return t.SetScale(DefaultScale) }

// SetOrigin records the model position of the root's top-left corner.
func (t *Transform) SetOrigin(x, y float64) { t.origin = Point{x, y} }

// SetViewport records the viewport size in screen units.
func (t *Transform) SetViewport(w, h float64) {
	t.viewportW, t.viewportH = math.Max(0, w), math.Max(0, h)
	t.PanTo(t.scrollY)
}

// SetContentHeight records the unscaled content height from the last layout.
func (t *Transform) SetContentHeight(h float64) {
	t.contentH = math.Max(0, h)
	t.PanTo(t.scrollY)
}

// MaxScroll returns the largest valid scroll offset.
func (t *Transform) MaxScroll() float64 {
	return math.Max(0, t.contentH*t.scale+t.offset.Y-t.viewportH)
}

// PanTo scrolls to y, clamped to [0, MaxScroll]. It returns the applied
// offset and never changes the scale.
func (t *Transform) PanTo(y float64) float64 {
	if math.IsNaN(y) {
		y = 0
	}
	t.scrollY = math.Min(t.MaxScroll(), math.Max(0, y))
	return t.scrollY
}

// PanBy scrolls by dy and returns the distance actually scrolled.
func (t *Transform) PanBy(dy float64) float64 {
	before := t.scrollY
	return t.PanTo(before+dy) - before
}

// Translate returns the translation applied after scaling.
func (t *Transform) Translate() (tx, ty float64) {
	tx = t.offset.X - t.origin.X*t.scale
	ty = t.offset.Y - t.origin.Y*t.scale - t.scrollY
	return tx, ty
}

// ToScreen converts a model coordinate to a viewport coordinate.
func (t *Transform) ToScreen(x, y float64) (sx, sy float64) {
	tx, ty := t.Translate()
	return x*t.scale + tx, y*t.scale + ty
}

// ToModel converts a viewport coordinate to a model coordinate. It is the
// exact inverse of [Transform.ToScreen].
func (t *Transform) ToModel(sx, sy float64) (x, y float64) {
	tx, ty := t.Translate()
	return (sx - tx) / t.scale, (sy - ty) / t.scale
}

// ScreenRect converts a model rectangle to screen space.
func (t *Transform) ScreenRect(r Rect) Rect {
	x, y := t.ToScreen(r.X, r.Y)
	return Rect{X: x, Y: y, W: r.W * t.scale, H: r.H * t.scale}
}

// Snapshot is a read-only copy of the transform state, handed to renderers.
type Snapshot struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	ScrollY    float64 `json:"scroll_y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Snapshot captures the current state.
func (t *Transform) Snapshot() Snapshot {
	tx, ty := t.Translate()
	return Snapshot{
		Scale:      t.scale,
		TranslateX: tx,
		TranslateY: ty,
		ScrollY:    t.scrollY,
		Width:      t.viewportW,
		Height:     t.viewportH,
	}
}
