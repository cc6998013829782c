package widget

import (
	"errors"
	"testing"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/drag"
	"github.com/matzehuels/coursemap/pkg/event"
	"github.com/matzehuels/coursemap/pkg/validation"
	"github.com/matzehuels/coursemap/pkg/view"
)

type lesson struct {
	key   string
	kind  string
	name  string
	files bool
}

func (l *lesson) PayloadKey() string { return l.key }

type lessonDescriber struct{}

func (lessonDescriber) TypeDisplayName(p any) string { return p.(*lesson).kind }
func (lessonDescriber) TransitionName(p any) string  { return p.(*lesson).name }
func (lessonDescriber) TypeIcon(any) string          { return "" }
func (lessonDescriber) OwnsResources(p any) bool     { return p.(*lesson).files }

type recorder struct {
	structural int
	selections []any
	started    int
	ended      int
	failures   []event.Failure
	menus      []event.ContextMenu
}

func (r *recorder) attach(w *Widget) {
	w.OnStructuralChange(func(event.StructuralChange) { r.structural++ })
	w.OnSelectionChange(func(e event.SelectionChange) { r.selections = append(r.selections, e.Payload) })
	w.OnDragStarted(func(event.DragStarted) { r.started++ })
	w.OnDragEnded(func(event.DragEnded) { r.ended++ })
	w.OnError(func(e event.Failure) { r.failures = append(r.failures, e) })
	w.OnContextMenu(func(e event.ContextMenu) { r.menus = append(r.menus, e) })
}

var trash = view.Rect{X: 1800, Y: 500, W: 100, H: 90}

// newWidget loads A..E on a 700px viewport. Capacity is 2, so:
// A(0,0) B(270,0) C(0,150) D(270,150) E(0,300).
func newWidget(t *testing.T, opts Options, payloads ...any) (*Widget, *recorder) {
	t.Helper()
	if len(payloads) == 0 {
		payloads = []any{"A", "B", "C", "D", "E"}
	}
	opts.Trash = trash
	w := New(opts)
	rec := &recorder{}
	rec.attach(w)
	w.Resize(700, 600)
	w.Load(diagram.Chain(false, payloads...))
	return w, rec
}

func find(t *testing.T, w *Widget, p any) *diagram.Node {
	t.Helper()
	n, ok := w.Diagram().FindPayload(p)
	if !ok {
		t.Fatalf("payload %v not in diagram", p)
	}
	return n
}

func TestLoadLaysOut(t *testing.T) {
	w, rec := newWidget(t, Options{})
	e := find(t, w, "E")
	if e.X != 0 || e.Y != 300 || e.Row != 2 {
		t.Errorf("E at (%v, %v) row %d, want (0, 300) row 2", e.X, e.Y, e.Row)
	}
	if got := len(w.Frame().Diff.Entering); got != 5 {
		t.Errorf("entering = %d, want 5", got)
	}
	if rec.structural != 0 {
		t.Error("Load echoed a structural change")
	}
}

func TestDragPositionAuthority(t *testing.T) {
	w, _ := newWidget(t, Options{})
	e := find(t, w, "E")
	c := find(t, w, "C")

	w.PointerDown(10, 310)
	w.PointerMove(400, 500)
	if w.DragState() != drag.Dragging {
		t.Fatalf("state = %v, want dragging", w.DragState())
	}
	x, y := e.X, e.Y

	w.Resize(1400, 600)
	if e.X != x || e.Y != y {
		t.Errorf("dragged node moved by layout: (%v, %v) -> (%v, %v)", x, y, e.X, e.Y)
	}
	if c.X != 540 || c.Y != 0 {
		t.Errorf("C at (%v, %v), want (540, 0) after widening", c.X, c.Y)
	}
	for _, u := range w.Frame().Diff.Updating {
		if u.ID == e.ID && (!u.Pinned || u.To.X != x) {
			t.Errorf("reconciler overwrote the pinned node: %+v", u)
		}
	}

	if out := w.PointerUp(400, 500); out.Kind != drag.OutcomeNone {
		t.Fatalf("outcome = %v, want none", out.Kind)
	}
	if e.X != 1080 || e.Y != 0 {
		t.Errorf("E at (%v, %v) after release, want layout position (1080, 0)", e.X, e.Y)
	}
}

func TestSelectionClearsOnDelete(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		w, rec := newWidget(t, Options{})
		c := find(t, w, "C")
		w.Select(c.ID)
		rec.selections = nil

		out, err := w.Delete(c.ID)
		if err != nil || out.Kind != drag.OutcomeDelete {
			t.Fatalf("Delete = %+v, %v", out, err)
		}
		if w.Selected() != diagram.None || w.Diagram().Selected() != diagram.None {
			t.Error("selection survived delete")
		}
		if len(rec.selections) != 1 || rec.selections[0] != nil {
			t.Errorf("selection events = %v, want exactly one nil", rec.selections)
		}
	})

	t.Run("ancestor reloaded away", func(t *testing.T) {
		w, rec := newWidget(t, Options{})
		w.Select(find(t, w, "D").ID)
		rec.selections = nil

		// B and everything below it are gone from the new document.
		w.Load(diagram.Chain(false, "A"))
		if w.Selected() != diagram.None {
			t.Error("selection survived losing its branch")
		}
		if len(rec.selections) != 1 || rec.selections[0] != nil {
			t.Errorf("selection events = %v, want exactly one nil", rec.selections)
		}
		if rec.structural != 0 {
			t.Errorf("structural = %d, want 0 for a host load", rec.structural)
		}
	})
}

func TestValidationSurvivesRename(t *testing.T) {
	intro := &lesson{key: "1", kind: "Video", name: "Intro"}
	w, _ := newWidget(t, Options{Describer: lessonDescriber{}}, intro, &lesson{key: "2", kind: "Quiz", name: "Check"})
	n := find(t, w, intro)

	w.SetValidationResults(map[string]validation.Outcome{"Intro": {Valid: false}})
	if !w.HasError(n.ID) {
		t.Fatal("Intro should have a badge")
	}

	intro.name = "Introduction"
	if w.HasError(n.ID) {
		t.Error("badge should be lost until the rename is reported")
	}
	w.RenameNode("Intro", "Introduction")
	if !w.HasError(n.ID) {
		t.Error("badge lost after rename")
	}
	if g := w.Frame().Glyphs[0]; !g.Badge || g.Header != "Video" || g.Body != "Introduction" {
		t.Errorf("glyph = %+v", g)
	}
}

func TestLoadPreservesSelection(t *testing.T) {
	a, b := &lesson{key: "a", name: "A"}, &lesson{key: "b", name: "B"}
	w, rec := newWidget(t, Options{Describer: lessonDescriber{}}, a, b)
	w.Select(find(t, w, b).ID)
	rec.selections = nil

	// Fresh values with the same keys, as after re-reading a document.
	b2 := &lesson{key: "b", name: "B renamed"}
	w.Load(diagram.Chain(false, &lesson{key: "a", name: "A"}, b2))
	sel, ok := w.Diagram().Node(w.Selected())
	if !ok || sel.Payload != b2 {
		t.Fatalf("selection not carried over by payload key: %v", w.Selected())
	}
	if len(rec.selections) != 0 {
		t.Errorf("selection events = %v, want none", rec.selections)
	}

	w.Load(diagram.Chain(false, &lesson{key: "a", name: "A"}))
	if w.Selected() != diagram.None || len(rec.selections) != 1 || rec.selections[0] != nil {
		t.Errorf("vanished payload: selected=%v events=%v", w.Selected(), rec.selections)
	}
}

type opaque struct{ data any }

func TestLoadUncomparablePayloads(t *testing.T) {
	w, rec := newWidget(t, Options{}, opaque{[]int{1}}, opaque{[]int{2}})
	w.Select(w.Diagram().Root().ID)
	rec.selections = nil

	w.Load(diagram.Chain(false, opaque{[]int{1}}, opaque{[]int{2}}))
	if w.Selected() != diagram.None {
		t.Errorf("selected = %v, want none for payloads without identity", w.Selected())
	}
	if len(rec.selections) != 1 || rec.selections[0] != nil {
		t.Errorf("selection events = %v, want exactly one nil", rec.selections)
	}
	if w.Diagram().Len() != 2 {
		t.Errorf("len = %d, want 2", w.Diagram().Len())
	}
}

func TestReadOnly(t *testing.T) {
	w, rec := newWidget(t, Options{})
	b := find(t, w, "B")
	w.SetReadOnly(true)

	w.PointerDown(280, 10)
	w.PointerMove(600, 400)
	out := w.PointerUp(600, 400)
	if out.Kind != drag.OutcomeClick || w.Selected() != b.ID {
		t.Errorf("click in read-only = %+v selected=%v", out, w.Selected())
	}
	if rec.started != 0 || b.X != 270 {
		t.Error("read-only press started a drag")
	}
	if _, err := w.Delete(b.ID); !errors.Is(err, drag.ErrReadOnly) {
		t.Errorf("Delete err = %v", err)
	}
	if _, err := w.Add("F", b.ID); !errors.Is(err, drag.ErrReadOnly) {
		t.Errorf("Add err = %v", err)
	}
	if w.BeginExternalDrag("F", 0, 0) {
		t.Error("external drag accepted in read-only mode")
	}
	if w.Frame().Trash != nil {
		t.Error("trash shown in read-only mode")
	}
}

type heldConfirmer struct{ done func(bool) }

func (c *heldConfirmer) ConfirmDelete(_ drag.DeleteRequest, done func(bool)) { c.done = done }

func TestTrashDropAsyncConfirm(t *testing.T) {
	conf := &heldConfirmer{}
	w, rec := newWidget(t, Options{Confirmer: conf})
	b := find(t, w, "B")

	w.PointerDown(280, 10)
	w.PointerMove(1850, 540)
	if out := w.PointerUp(1850, 540); out.Kind != drag.OutcomePending {
		t.Fatalf("outcome = %v, want pending", out.Kind)
	}
	if rec.structural != 0 {
		t.Fatal("structure changed before confirmation")
	}

	conf.done(true)
	if _, ok := w.Diagram().Node(b.ID); ok {
		t.Error("B still present after confirmation")
	}
	c := find(t, w, "C")
	if c.Parent().Payload != "A" || c.X != 270 || c.Y != 0 {
		t.Errorf("C not relinked and laid out: parent=%v at (%v, %v)", c.Parent().Payload, c.X, c.Y)
	}
	if rec.structural != 1 || rec.started != 1 || rec.ended != 1 {
		t.Errorf("events = %+v", rec)
	}
}

func TestResizeWhileDeleteConfirmPending(t *testing.T) {
	conf := &heldConfirmer{}
	w, _ := newWidget(t, Options{Confirmer: conf})
	e := find(t, w, "E")

	w.PointerDown(10, 310)
	w.PointerMove(1850, 540)
	if out := w.PointerUp(1850, 540); out.Kind != drag.OutcomePending {
		t.Fatalf("outcome = %v, want pending", out.Kind)
	}
	x, y := e.X, e.Y

	w.Resize(1400, 600)
	if e.X != x || e.Y != y {
		t.Errorf("node under the open dialog moved: (%v, %v) -> (%v, %v)", x, y, e.X, e.Y)
	}
	w.ZoomOut()
	if e.X != x || e.Y != y {
		t.Errorf("zoom moved the node under the open dialog to (%v, %v)", e.X, e.Y)
	}

	w.ResetZoom()
	conf.done(false)
	if e.X != 1080 || e.Y != 0 {
		t.Errorf("E at (%v, %v) after declining, want layout position (1080, 0)", e.X, e.Y)
	}
}

type failingCleaner struct{ err error }

func (c failingCleaner) Cleanup(_ any, done func(error)) { done(c.err) }

func TestCleanupFailureIsReported(t *testing.T) {
	boom := errors.New("delete files: 503")
	video := &lesson{key: "v", kind: "Video", name: "Clip", files: true}
	w, rec := newWidget(t, Options{Describer: lessonDescriber{}, Cleaner: failingCleaner{boom}},
		&lesson{key: "a", name: "A"}, video)
	n := find(t, w, video)

	out, err := w.Delete(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != drag.OutcomeNone || !errors.Is(out.Err, boom) {
		t.Errorf("outcome = %+v", out)
	}
	if _, ok := w.Diagram().Node(n.ID); !ok {
		t.Error("node deleted although cleanup failed")
	}
	if len(rec.failures) != 1 || rec.failures[0].Payload != video || rec.structural != 0 {
		t.Errorf("failures = %v structural = %d", rec.failures, rec.structural)
	}
}

func TestDragMoveAndExternalDrop(t *testing.T) {
	w, rec := newWidget(t, Options{})

	// D onto A: D becomes A's second child.
	w.PointerDown(280, 160)
	w.PointerMove(50, 50)
	if out := w.PointerUp(50, 50); out.Kind != drag.OutcomeMove {
		t.Fatalf("move outcome = %+v", out)
	}
	a := find(t, w, "A")
	if len(a.Children) != 2 || a.Children[1].Payload != "D" {
		t.Errorf("A children = %v", a.Children)
	}

	w.BeginExternalDrag("F", 1000, 400)
	if g := w.Frame().Ghost; g == nil || g.Body != "F" {
		t.Errorf("ghost = %+v", g)
	}
	out := w.PointerUp(50, 50)
	if out.Kind != drag.OutcomeMove {
		t.Fatalf("external outcome = %+v", out)
	}
	if n, _ := w.Diagram().Node(out.NodeID); n.Parent() != a {
		t.Error("external payload not inserted under A")
	}
	if rec.structural != 2 || rec.started != 2 || rec.ended != 2 {
		t.Errorf("events = %+v", rec)
	}
}

func TestDragOntoDescendantLeavesTree(t *testing.T) {
	w, rec := newWidget(t, Options{})
	before := w.Diagram().Links()

	w.PointerDown(10, 10) // A
	w.PointerMove(20, 310)
	if out := w.PointerUp(20, 310); out.Kind != drag.OutcomeNone {
		t.Errorf("outcome = %v, want none", out.Kind)
	}
	after := w.Diagram().Links()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("links changed: %v -> %v", before, after)
		}
	}
	if a := find(t, w, "A"); a.X != 0 || a.Y != 0 || rec.structural != 0 {
		t.Errorf("A at (%v, %v), structural = %d", a.X, a.Y, rec.structural)
	}
}

func TestCanvasPan(t *testing.T) {
	w, _ := newWidget(t, Options{})
	w.Resize(700, 200)
	w.PointerDown(600, 150)
	w.PointerMove(600, 100)
	if got := w.View().ScrollY; got != 50 {
		t.Errorf("scrollY = %v, want 50", got)
	}
	w.PointerMove(600, -1000)
	if got := w.View().ScrollY; got != 250 {
		t.Errorf("scrollY = %v, want clamp at 250", got)
	}
	if out := w.PointerUp(600, -1000); out.Kind != drag.OutcomeNone {
		t.Errorf("pan release outcome = %v", out.Kind)
	}
}

func TestContextMenuAndZoom(t *testing.T) {
	w, rec := newWidget(t, Options{})
	if !w.ContextMenu(10, 10) || len(rec.menus) != 1 || rec.menus[0].Payload != "A" {
		t.Errorf("context menu = %v", rec.menus)
	}
	if w.ContextMenu(650, 10) {
		t.Error("context menu on empty canvas")
	}

	w.ZoomOut()
	if got := w.Frame().Layout.Capacity; got != 3 {
		t.Errorf("capacity after zoom out = %d, want 3", got)
	}
	w.ResetZoom()
	if got := w.Frame().Layout.Capacity; got != 2 {
		t.Errorf("capacity after reset = %d, want 2", got)
	}
}

func TestPlaceholderNames(t *testing.T) {
	w, _ := newWidget(t, Options{Describer: lessonDescriber{}}, &lesson{key: "x"})
	g := w.Frame().Glyphs[0]
	if g.Header != Placeholder || g.Body != Placeholder {
		t.Errorf("glyph = %+v, want placeholders", g)
	}
}

func TestSetTrashMovesDropTarget(t *testing.T) {
	w, _ := newWidget(t, Options{})
	e := find(t, w, "E")
	if r := w.ScreenRect(e); r != (view.Rect{X: 0, Y: 300, W: 210, H: 90}) {
		t.Errorf("ScreenRect(E) = %+v", r)
	}

	w.SetTrash(view.Rect{X: 500, Y: 500, W: 80, H: 80})
	if sc := w.Frame(); sc.Trash == nil || sc.Trash.X != 500 {
		t.Fatalf("frame trash = %+v", sc.Trash)
	}
	w.PointerDown(10, 310)
	w.PointerMove(540, 540)
	if s, ok := w.Session(); !ok || s.Intent != drag.IntentDeleteOverTrash {
		t.Errorf("session = %+v, %v; want delete intent over the moved trash", s, ok)
	}
	w.Cancel()
}
