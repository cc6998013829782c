package widget

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/drag"
	"github.com/matzehuels/coursemap/pkg/event"
	"github.com/matzehuels/coursemap/pkg/layout"
	"github.com/matzehuels/coursemap/pkg/reconcile"
	"github.com/matzehuels/coursemap/pkg/selection"
	"github.com/matzehuels/coursemap/pkg/validation"
	"github.com/matzehuels/coursemap/pkg/view"
)

// Placeholder is shown when a payload has no derivable name.
const Placeholder = "(untitled)"

// Describer derives display strings from payloads. Every method must be a
// pure function of the payload.
type Describer interface {
	TypeDisplayName(payload any) string
	TransitionName(payload any) string
	TypeIcon(payload any) string
	OwnsResources(payload any) bool
}

// Options configures a [Widget]. Only Describer is commonly set; the zero
// value of every other field has a working default.
type Options struct {
	Describer    Describer
	Layout       layout.Config // zero means layout.DefaultConfig()
	Confirmer    drag.Confirmer
	Cleaner      drag.Cleaner
	DropResolver drag.DropResolver
	Scheduler    drag.Scheduler

	// Trash is the delete target in screen coordinates. A zero rect
	// disables drag-to-delete.
	Trash view.Rect
	// Offset is the fixed screen position of the root's top-left corner.
	Offset view.Point

	Logger *log.Logger
}

// Widget is the diagram editor. It owns the tree model, layout, view
// transform, drag and selection state, and is the only thing hosts talk to.
// Widget is not safe for concurrent use.
type Widget struct {
	opts Options
	desc Describer
	log  *log.Logger

	d       *diagram.Diagram
	view    *view.Transform
	drag    *drag.Controller
	sel     *selection.Controller
	overlay validation.Overlay

	width    float64
	readOnly bool
	lay      layout.Result
	prev     reconcile.Frame
	last     reconcile.Result

	// press is a node clicked while read-only; it selects on release.
	press diagram.NodeID
	// panning is a drag on empty canvas.
	panning        bool
	panY, panStart float64

	structural  event.Topic[event.StructuralChange]
	selection   event.Topic[event.SelectionChange]
	contextMenu event.Topic[event.ContextMenu]
	dragStarted event.Topic[event.DragStarted]
	dragEnded   event.Topic[event.DragEnded]
	failures    event.Topic[event.Failure]
}

// New creates a widget with an empty diagram.
func New(opts Options) *Widget {
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	w := &Widget{
		opts: opts,
		desc: opts.Describer,
		log:  opts.Logger,
		d:    diagram.New(false),
		view: view.New(opts.Offset),
		prev: reconcile.Empty(),
	}
	if w.desc == nil {
		w.desc = plainDescriber{}
	}
	if w.log == nil {
		w.log = log.New(io.Discard)
	}
	w.sel = selection.New(w.d, func(p any) {
		w.selection.Publish(event.SelectionChange{Payload: p})
	})
	w.drag = drag.New(w.d, drag.Config{
		View:          w.view,
		HitTester:     hitTester{w},
		Scheduler:     opts.Scheduler,
		Confirmer:     opts.Confirmer,
		Cleaner:       opts.Cleaner,
		Resolver:      opts.DropResolver,
		OwnsResources: w.desc.OwnsResources,
		Logger:        w.log,
		Hooks: drag.Hooks{
			DragStarted:      func() { w.dragStarted.Publish(event.DragStarted{}) },
			DragEnded:        func() { w.dragEnded.Publish(event.DragEnded{}) },
			ClearSelection:   func() { w.sel.Select(diagram.None, true) },
			StructuralChange: w.changed,
			Failure: func(p any, err error) {
				w.log.Debug("delete refused", "err", err)
				w.failures.Publish(event.Failure{Payload: p, Err: err})
			},
			Release: w.refresh,
		},
	})
	return w
}

// =============================================================================
// Subscriptions
// =============================================================================

// OnStructuralChange subscribes to committed moves, inserts and deletes.
func (w *Widget) OnStructuralChange(fn func(event.StructuralChange)) func() {
	return w.structural.Subscribe(fn)
}

// OnSelectionChange subscribes to selection changes.
func (w *Widget) OnSelectionChange(fn func(event.SelectionChange)) func() {
	return w.selection.Subscribe(fn)
}

// OnContextMenu subscribes to context-menu requests on nodes.
func (w *Widget) OnContextMenu(fn func(event.ContextMenu)) func() {
	return w.contextMenu.Subscribe(fn)
}

// OnDragStarted subscribes to drag starts.
func (w *Widget) OnDragStarted(fn func(event.DragStarted)) func() {
	return w.dragStarted.Subscribe(fn)
}

// OnDragEnded subscribes to drag ends.
func (w *Widget) OnDragEnded(fn func(event.DragEnded)) func() {
	return w.dragEnded.Subscribe(fn)
}

// OnError subscribes to collaborator failures the widget refused to commit.
func (w *Widget) OnError(fn func(event.Failure)) func() {
	return w.failures.Subscribe(fn)
}

// =============================================================================
// Model
// =============================================================================

// Load replaces the diagram with one built from in. Any drag is cancelled.
// The selection is carried over by payload equality; if the selected payload
// is gone, a nil selection change is published.
func (w *Widget) Load(in diagram.Input) {
	w.drag.Cancel()
	w.panning, w.press = false, diagram.None

	var keep any
	if n, ok := w.d.Node(w.sel.Selected()); ok {
		keep = n.Payload
	}

	w.d = diagram.Build(in)
	w.drag.SetDiagram(w.d)
	w.sel.SetDiagram(w.d)
	w.prev = reconcile.Empty()

	if keep != nil {
		if n, ok := w.d.FindPayload(keep); ok {
			w.sel.Select(n.ID, false)
		} else {
			w.selection.Publish(event.SelectionChange{})
		}
	}
	w.log.Debug("diagram loaded", "nodes", w.d.Len())
	w.refresh()
}

// Diagram returns the live tree model. Callers must not mutate it.
func (w *Widget) Diagram() *diagram.Diagram { return w.d }

// Export returns the current tree for persistence.
func (w *Widget) Export() diagram.Input { return w.d.Export() }

// Add inserts payload as the last child of parent, or as the new root when
// parent is None.
func (w *Widget) Add(payload any, parent diagram.NodeID) (diagram.NodeID, error) {
	if err := w.editable(); err != nil {
		return diagram.None, err
	}
	n, err := w.d.Insert(payload, parent)
	if err != nil {
		return diagram.None, fmt.Errorf("add: %w", err)
	}
	w.log.Debug("node added", "node", n.ID, "parent", parent)
	w.refresh()
	w.changed()
	return n.ID, nil
}

// Delete asks for confirmation and deletes id, relinking its children to
// its parent. It follows the same confirm and cleanup path as a trash drop;
// the outcome is OutcomePending while a dialog is open.
func (w *Widget) Delete(id diagram.NodeID) (drag.Outcome, error) {
	return w.drag.RequestDelete(id)
}

func (w *Widget) editable() error {
	if w.readOnly {
		return drag.ErrReadOnly
	}
	if w.drag.State() != drag.Idle {
		return drag.ErrBusy
	}
	return nil
}

// changed runs after every committed structural edit.
func (w *Widget) changed() {
	w.sel.Prune()
	w.structural.Publish(event.StructuralChange{})
}

// =============================================================================
// Selection, validation, read-only
// =============================================================================

// Select selects id and notifies listeners. The end marker is not
// selectable. It reports whether the selection changed.
func (w *Widget) Select(id diagram.NodeID) bool {
	if n, ok := w.d.Node(id); ok && n.IsEndMarker() {
		return false
	}
	return w.sel.Select(id, true)
}

// SelectPayload selects the node holding p without notifying. It is used by
// hosts that already know about the selection, e.g. after opening an editor.
func (w *Widget) SelectPayload(p any) bool {
	n, ok := w.d.FindPayload(p)
	if !ok {
		return false
	}
	return w.sel.Select(n.ID, false)
}

// Selected returns the selected node, or None.
func (w *Widget) Selected() diagram.NodeID { return w.sel.Selected() }

// SetReadOnly toggles read-only mode. Selection keeps working.
func (w *Widget) SetReadOnly(ro bool) {
	w.readOnly = ro
	w.drag.SetReadOnly(ro)
}

// ReadOnly reports whether editing is disabled.
func (w *Widget) ReadOnly() bool { return w.readOnly }

// SetValidationResults replaces the validation index.
func (w *Widget) SetValidationResults(results map[string]validation.Outcome) {
	w.overlay.SetResults(results)
}

// RenameNode moves validation state from oldName to newName after a payload
// was renamed.
func (w *Widget) RenameNode(oldName, newName string) {
	w.overlay.Rename(oldName, newName)
}

// HasError reports whether the node displays an error badge.
func (w *Widget) HasError(id diagram.NodeID) bool {
	n, ok := w.d.Node(id)
	if !ok || n.IsEndMarker() {
		return false
	}
	return w.overlay.HasError(w.name(n.Payload))
}

// ValidationDetail returns the outcome behind a node's badge.
func (w *Widget) ValidationDetail(id diagram.NodeID) (validation.Outcome, bool) {
	n, ok := w.d.Node(id)
	if !ok || n.IsEndMarker() {
		return validation.Outcome{}, false
	}
	return w.overlay.Detail(w.name(n.Payload))
}

// =============================================================================
// Viewport
// =============================================================================

// Resize must be called whenever the viewport changes size. A drag in
// progress survives; the dragged node keeps its position.
func (w *Widget) Resize(width, height float64) {
	w.width = width
	w.view.SetViewport(width, height)
	w.refresh()
}

// ZoomIn zooms in one step.
func (w *Widget) ZoomIn() bool { return w.zoomed(w.view.ZoomIn()) }

// ZoomOut zooms out one step.
func (w *Widget) ZoomOut() bool { return w.zoomed(w.view.ZoomOut()) }

// ResetZoom restores the default scale.
func (w *Widget) ResetZoom() bool { return w.zoomed(w.view.Reset()) }

// SetZoom sets an explicit scale, clamped to the view limits.
func (w *Widget) SetZoom(scale float64) bool { return w.zoomed(w.view.SetScale(scale)) }

func (w *Widget) zoomed(changed bool) bool {
	if changed {
		w.refresh()
	}
	return changed
}

// PanTo scrolls the view and returns the applied offset.
func (w *Widget) PanTo(y float64) float64 { return w.view.PanTo(y) }

// PanBy scrolls by dy and returns the distance moved.
func (w *Widget) PanBy(dy float64) float64 { return w.view.PanBy(dy) }

// View returns the view transform state.
func (w *Widget) View() view.Snapshot { return w.view.Snapshot() }

// ToModel converts a screen point to model coordinates.
func (w *Widget) ToModel(x, y float64) (float64, float64) { return w.view.ToModel(x, y) }

// ScreenRect returns a node's current rectangle in screen coordinates.
func (w *Widget) ScreenRect(n *diagram.Node) view.Rect {
	return w.view.ScreenRect(view.Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height})
}

// SetTrash moves the delete target. Hosts call it after a resize when the
// trash is anchored to a viewport edge.
func (w *Widget) SetTrash(r view.Rect) { w.opts.Trash = r }

// refresh runs layout and reconciliation. The dragged node, if any, is
// pinned so neither moves it.
func (w *Widget) refresh() {
	pinned := w.drag.Pinned()
	w.lay = layout.Layout(w.d, w.opts.Layout, w.width, w.view.Scale(), pinned)
	if r := w.d.Root(); r != nil && r.ID != pinned {
		w.view.SetOrigin(r.X, r.Y)
	}
	w.view.SetContentHeight(w.lay.Height)
	w.last = reconcile.Reconcile(w.prev, w.d, pinned)
	w.prev = w.last.Next
}

// =============================================================================
// Pointer input
// =============================================================================

// PointerDown handles a press at a screen position. A press on a node may
// start a drag; a press on empty canvas starts scrolling.
func (w *Widget) PointerDown(x, y float64) {
	if w.drag.State() != drag.Idle {
		return
	}
	t := w.hitTest(x, y, diagram.None)
	switch t.Kind {
	case drag.TargetNode:
		if !w.drag.PointerDown(t.NodeID, x, y) {
			w.press = t.NodeID
		}
	case drag.TargetNone:
		w.panning, w.panY, w.panStart = true, y, w.view.ScrollY()
	}
}

// PointerMove handles pointer motion.
func (w *Widget) PointerMove(x, y float64) {
	if w.panning {
		w.view.PanTo(w.panStart - (y - w.panY))
		return
	}
	w.drag.PointerMove(x, y)
}

// PointerUp handles a release and returns how it resolved. A release that
// never became a drag selects the pressed node.
func (w *Widget) PointerUp(x, y float64) drag.Outcome {
	if w.panning {
		w.panning = false
		return drag.Outcome{}
	}
	if id := w.press; id != diagram.None {
		w.press = diagram.None
		w.Select(id)
		return drag.Outcome{Kind: drag.OutcomeClick, NodeID: id}
	}
	out := w.drag.PointerUp(x, y)
	if out.Kind == drag.OutcomeClick {
		w.Select(out.NodeID)
	}
	return out
}

// Cancel abandons any drag or pending delete.
func (w *Widget) Cancel() bool {
	w.panning, w.press = false, diagram.None
	return w.drag.Cancel()
}

// ContextMenu publishes a context-menu request for the node at a screen
// position. It reports whether there was one.
func (w *Widget) ContextMenu(x, y float64) bool {
	t := w.hitTest(x, y, diagram.None)
	if t.Kind != drag.TargetNode {
		return false
	}
	n, _ := w.d.Node(t.NodeID)
	if n.IsEndMarker() {
		return false
	}
	w.contextMenu.Publish(event.ContextMenu{Payload: n.Payload, X: x, Y: y})
	return true
}

// BeginExternalDrag starts dragging a payload that is not in the diagram.
func (w *Widget) BeginExternalDrag(payload any, x, y float64) bool {
	return w.drag.BeginExternal(payload, x, y)
}

// DragState returns the drag controller state.
func (w *Widget) DragState() drag.State { return w.drag.State() }

// Session returns the active drag session.
func (w *Widget) Session() (drag.Session, bool) { return w.drag.Session() }

// Scrolling reports whether auto-scroll is running.
func (w *Widget) Scrolling() bool { return w.drag.Scrolling() }

type hitTester struct{ w *Widget }

func (h hitTester) HitTest(x, y float64, exclude diagram.NodeID) drag.Target {
	return h.w.hitTest(x, y, exclude)
}

// hitTest checks the trash first, then nodes from the topmost drawn down.
func (w *Widget) hitTest(x, y float64, exclude diagram.NodeID) drag.Target {
	p := view.Point{X: x, Y: y}
	if w.opts.Trash.W > 0 && w.opts.Trash.H > 0 && w.opts.Trash.Contains(p) {
		return drag.Target{Kind: drag.TargetTrash}
	}
	nodes := w.d.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.ID == exclude {
			continue
		}
		if w.ScreenRect(n).Contains(p) {
			return drag.Target{Kind: drag.TargetNode, NodeID: n.ID}
		}
	}
	return drag.Target{}
}
