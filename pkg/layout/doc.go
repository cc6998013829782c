// Package layout computes node positions for the course diagram.
//
// The layout is a row-wrapped "snake": a linear chain runs left to right
// and wraps onto a new row band whenever the next column would not fit in
// the viewport, so long courses never need horizontal scrolling. Row
// capacity depends on the zoom scale, which is why every zoom change
// triggers a new pass.
//
//	cfg := layout.DefaultConfig()
//	res := layout.Layout(d, cfg, 700, 1.0, diagram.None)
//	// res.Capacity == 2 for W=210, margin=60
//
// Capacity uses the closed form floor(width / (W + margin)), so a viewport
// must also fit the trailing margin of the last column.
package layout
