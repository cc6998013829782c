package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/drag"
	"github.com/matzehuels/coursemap/pkg/view"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// Terminal cells are mapped to this many screen pixels, so the widget lays
// out a terminal of C columns as a viewport C*cellW pixels wide.
const (
	cellW = 10.0
	cellH = 18.0
)

type cellStyle int

const (
	cellPlain cellStyle = iota
	cellBorder
	cellSelected
	cellDragging
	cellHeader
	cellBadge
	cellLink
	cellTrash
	cellTrashHot
	cellEnd
	cellModal
)

var cellStyles = map[cellStyle]lipgloss.Style{
	cellPlain:    lipgloss.NewStyle(),
	cellBorder:   lipgloss.NewStyle().Foreground(colorGray),
	cellSelected: lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	cellDragging: lipgloss.NewStyle().Foreground(colorYellow),
	cellHeader:   lipgloss.NewStyle().Foreground(colorWhite).Bold(true),
	cellBadge:    lipgloss.NewStyle().Foreground(colorWhite).Background(colorRed).Bold(true),
	cellLink:     lipgloss.NewStyle().Foreground(colorBlue),
	cellTrash:    lipgloss.NewStyle().Foreground(colorDim),
	cellTrashHot: lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	cellEnd:      lipgloss.NewStyle().Foreground(colorGreen),
	cellModal:    lipgloss.NewStyle().Foreground(colorYellow).Bold(true),
}

type cell struct {
	r     rune
	style cellStyle
}

// canvas is a fixed grid of styled runes. Writes outside the grid are
// dropped.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: max(w, 0), h: max(h, 0)}
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, s cellStyle) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, style: s}
}

func (c *canvas) at(x, y int) rune {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return 0
	}
	return c.cells[y*c.w+x].r
}

// text writes s starting at x, truncated to max cells with an ellipsis.
func (c *canvas) text(x, y int, s string, limit int, st cellStyle) {
	r := []rune(s)
	if limit <= 0 {
		return
	}
	if len(r) > limit {
		r = append(r[:limit-1], '…')
	}
	for i, ch := range r {
		c.set(x+i, y, ch, st)
	}
}

type boxChars struct{ tl, tr, bl, br, h, v rune }

var (
	boxSquare  = boxChars{'┌', '┐', '└', '┘', '─', '│'}
	boxRounded = boxChars{'╭', '╮', '╰', '╯', '─', '│'}
	boxDouble  = boxChars{'╔', '╗', '╚', '╝', '═', '║'}
	boxDashed  = boxChars{'┌', '┐', '└', '┘', '╌', '╎'}
)

// box draws a border and blanks the interior.
func (c *canvas) box(x, y, w, h int, b boxChars, st cellStyle) {
	if w < 2 || h < 2 {
		return
	}
	for i := 1; i < w-1; i++ {
		c.set(x+i, y, b.h, st)
		c.set(x+i, y+h-1, b.h, st)
	}
	for j := 1; j < h-1; j++ {
		c.set(x, y+j, b.v, st)
		c.set(x+w-1, y+j, b.v, st)
		for i := 1; i < w-1; i++ {
			c.set(x+i, y+j, ' ', cellPlain)
		}
	}
	c.set(x, y, b.tl, st)
	c.set(x+w-1, y, b.tr, st)
	c.set(x, y+h-1, b.bl, st)
	c.set(x+w-1, y+h-1, b.br, st)
}

func (c *canvas) hline(x0, x1, y int, st cellStyle) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.set(x, y, '─', st)
	}
}

func (c *canvas) vline(x, y0, y1 int, st cellStyle) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.set(x, y, '│', st)
	}
}

// String renders the grid, batching runs of equal style.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := c.cells[y*c.w : (y+1)*c.w]
		for i := 0; i < len(row); {
			j := i
			var run strings.Builder
			for j < len(row) && row[j].style == row[i].style {
				run.WriteRune(row[j].r)
				j++
			}
			if row[i].style == cellPlain {
				b.WriteString(run.String())
			} else {
				b.WriteString(cellStyles[row[i].style].Render(run.String()))
			}
			i = j
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// cellRect converts a screen rectangle to a cell rectangle.
type cellRect struct{ x, y, w, h int }

func toCells(r view.Rect) cellRect {
	x := int(math.Round(r.X / cellW))
	y := int(math.Round(r.Y / cellH))
	return cellRect{
		x: x,
		y: y,
		w: max(int(math.Round((r.X+r.W)/cellW))-x, 3),
		h: max(int(math.Round((r.Y+r.H)/cellH))-y, 3),
	}
}

// drawScene paints one frame. hot marks the trash as the current drop
// target.
func drawScene(c *canvas, sc widget.Scene, hot bool) {
	rects := make(map[diagram.NodeID]cellRect, len(sc.Glyphs))
	for _, g := range sc.Glyphs {
		rects[g.ID] = toCells(g.Screen)
	}
	for _, l := range sc.Links {
		src, okS := rects[l.Source]
		dst, okD := rects[l.Target]
		if okS && okD {
			drawLink(c, src, dst)
		}
	}
	if sc.Trash != nil {
		t := toCells(*sc.Trash)
		st := cellTrash
		if hot {
			st = cellTrashHot
		}
		c.box(t.x, t.y, t.w, t.h, boxDashed, st)
		c.text(t.x+max((t.w-6)/2, 1), t.y+t.h/2, "Delete", t.w-2, st)
	}
	// Dragged glyphs are drawn last so they float above the rest.
	for _, pass := range []bool{false, true} {
		for _, g := range sc.Glyphs {
			if g.Dragging == pass {
				drawGlyph(c, g, rects[g.ID])
			}
		}
	}
	if sc.Ghost != nil {
		drawGlyph(c, *sc.Ghost, toCells(sc.Ghost.Screen))
	}
}

func drawGlyph(c *canvas, g widget.Glyph, r cellRect) {
	if g.Kind == diagram.KindEndMarker.String() {
		c.box(r.x, r.y, r.w, r.h, boxRounded, cellEnd)
		c.text(r.x+max((r.w-len(g.Header))/2, 1), r.y+r.h/2, g.Header, r.w-2, cellEnd)
		return
	}

	border, chars := cellBorder, boxSquare
	switch {
	case g.Dragging:
		border = cellDragging
	case strings.Contains(g.Class, "selected"):
		border, chars = cellSelected, boxDouble
	}
	c.box(r.x, r.y, r.w, r.h, chars, border)

	header := g.Header
	if g.Icon != "" {
		header = g.Icon + " " + header
	}
	c.text(r.x+2, r.y+1, header, r.w-4, cellHeader)
	if r.h > 3 {
		c.text(r.x+2, r.y+2, g.Body, r.w-4, cellPlain)
	}
	if g.Badge {
		c.text(r.x+r.w-4, r.y, " ! ", 3, cellBadge)
	}
}

// drawLink connects the bottom of src to the top of dst with an elbow, or
// the right side of src to the left side of dst when they share a band.
func drawLink(c *canvas, src, dst cellRect) {
	if dst.y >= src.y+src.h {
		sx, sy := src.x+src.w/2, src.y+src.h
		dx, dy := dst.x+dst.w/2, dst.y-1
		mid := (sy + dy) / 2
		c.vline(sx, sy, mid, cellLink)
		c.vline(dx, mid, dy, cellLink)
		if sx != dx {
			c.hline(sx, dx, mid, cellLink)
			if dx > sx {
				c.set(sx, mid, '└', cellLink)
				c.set(dx, mid, '┐', cellLink)
			} else {
				c.set(sx, mid, '┘', cellLink)
				c.set(dx, mid, '┌', cellLink)
			}
		}
		c.set(dx, dy, '▼', cellLink)
		return
	}
	y := src.y + src.h/2
	x0, x1 := src.x+src.w, dst.x-1
	if x1 < x0 {
		x0, x1 = dst.x+dst.w, src.x-1
	}
	c.hline(x0, x1, y, cellLink)
	if dst.x > src.x {
		c.set(x1, y, '▶', cellLink)
	} else {
		c.set(x0, y, '◀', cellLink)
	}
}

// drawModal centers a bordered dialog over the canvas.
func drawModal(c *canvas, lines []string) {
	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	w, h := min(width+4, c.w), len(lines)+2
	x, y := (c.w-w)/2, (c.h-h)/2
	c.box(x, y, w, h, boxDouble, cellModal)
	for i, l := range lines {
		c.text(x+2, y+1+i, l, w-4, cellPlain)
	}
}

// trashHot reports whether releasing now would delete.
func trashHot(s drag.Session, ok bool) bool {
	return ok && s.Intent == drag.IntentDeleteOverTrash
}
