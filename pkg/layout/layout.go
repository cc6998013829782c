package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/coursemap/pkg/diagram"
)

// Config holds the fixed geometry of the row-wrap layout. All values are in
// model units (unscaled pixels).
type Config struct {
	NodeWidth  float64 // logical width W of a transition node
	NodeHeight float64 // drawn height of a transition node
	Margin     float64 // horizontal gap between consecutive columns
	RowHeight  float64 // vertical slot height of one lane

	EndMarkerWidth  float64
	EndMarkerHeight float64
}

// DefaultConfig returns the geometry used by the editor.
func DefaultConfig() Config {
	return Config{
		NodeWidth:       210,
		NodeHeight:      90,
		Margin:          60,
		RowHeight:       150,
		EndMarkerWidth:  60,
		EndMarkerHeight: 60,
	}
}

// Pitch returns the horizontal distance between two columns.
func (c Config) Pitch() float64 { return c.NodeWidth + c.Margin }

// Result summarizes a layout pass.
type Result struct {
	Capacity int     `json:"capacity"` // nodes per row
	Rows     int     `json:"rows"`     // number of row bands
	Lanes    int     `json:"lanes"`    // total lanes over all bands
	Width    float64 `json:"width"`    // content width in model units
	Height   float64 `json:"height"`   // content height in model units, for sizing the container
}

// RowCapacity returns how many columns fit in viewportWidth at the given
// zoom: max(1, floor((viewportWidth/zoom) / (W+margin))). Degenerate inputs
// (zero, negative or NaN widths, non-positive zoom) never fail; they fall
// back to one node per row or to zoom 1.
func (c Config) RowCapacity(viewportWidth, zoom float64) int {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		zoom = 1
	}
	pitch := c.Pitch()
	if !(viewportWidth > 0) || !(pitch > 0) {
		return 1
	}
	cols := math.Floor(viewportWidth / zoom / pitch)
	if cols > math.MaxInt32 {
		return math.MaxInt32
	}
	capacity := int(cols)
	if capacity < 1 {
		return 1
	}
	return capacity
}

// Layout positions every node of d in a row-wrapped snake: a node at depth k
// sits in column k mod capacity of row band k / capacity. Branches open new
// lanes: a node's first child continues its parent's lane, every further
// child starts a lane of its own. Lanes present in a row band are stacked
// inside that band, so a purely linear chain lands at y = row * RowHeight.
//
// The pinned node, if any, is under the drag controller's authority: its
// depth, row and lane are refreshed but its position fields are not written.
//
// Layout never fails.
func Layout(d *diagram.Diagram, cfg Config, viewportWidth, zoom float64, pinned diagram.NodeID) Result {
	capacity := cfg.RowCapacity(viewportWidth, zoom)
	res := Result{Capacity: capacity}

	root := d.Root()
	if root == nil {
		return res
	}
	d.UpdateDepths()

	nodes := d.Nodes()
	assignLanes(root)

	// Collect the lanes present in each row band, in first-seen order.
	bands := make(map[int][]int)
	maxRow, maxCol := 0, 0
	for _, n := range nodes {
		n.Row = n.Depth / capacity
		if !slices.Contains(bands[n.Row], n.Lane) {
			bands[n.Row] = append(bands[n.Row], n.Lane)
		}
		maxRow = max(maxRow, n.Row)
		maxCol = max(maxCol, min(n.Depth, capacity-1))
	}

	bandTop := make([]float64, maxRow+2)
	for r := 0; r <= maxRow; r++ {
		bandTop[r+1] = bandTop[r] + float64(len(bands[r]))*cfg.RowHeight
		res.Lanes += len(bands[r])
	}

	for _, n := range nodes {
		n.Width, n.Height = size(cfg, n)
		if n.ID == pinned {
			continue
		}
		slot := slices.Index(bands[n.Row], n.Lane)
		n.PrevX, n.PrevY = n.X, n.Y
		n.X = float64(n.Depth%capacity) * cfg.Pitch()
		n.Y = bandTop[n.Row] + float64(slot)*cfg.RowHeight
	}

	res.Rows = maxRow + 1
	res.Width = float64(maxCol)*cfg.Pitch() + cfg.NodeWidth
	res.Height = bandTop[maxRow+1]
	return res
}

// assignLanes gives the root lane 0 and hands out lanes in pre-order.
func assignLanes(root *diagram.Node) {
	next := 0
	var visit func(n *diagram.Node, lane int)
	visit = func(n *diagram.Node, lane int) {
		n.Lane = lane
		for i, c := range n.Children {
			if i == 0 {
				visit(c, lane)
				continue
			}
			next++
			visit(c, next)
		}
	}
	visit(root, 0)
}

func size(cfg Config, n *diagram.Node) (w, h float64) {
	if n.IsEndMarker() {
		return cfg.EndMarkerWidth, cfg.EndMarkerHeight
	}
	return cfg.NodeWidth, cfg.NodeHeight
}
