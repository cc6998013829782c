package drag

import (
	"errors"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/view"
)

var (
	// ErrRejected is reported in an [Outcome] when the drop resolver refused
	// the target.
	ErrRejected = errors.New("drop rejected")

	// ErrCancelled is reported when the user declined a delete.
	ErrCancelled = errors.New("delete cancelled")

	// ErrReadOnly is returned when an edit is attempted in read-only mode.
	ErrReadOnly = errors.New("diagram is read-only")

	// ErrBusy is returned when a delete is requested while another drag or
	// confirmation is in progress.
	ErrBusy = errors.New("drag in progress")
)

// Config wires a [Controller] to its collaborators. View and HitTester are
// required; everything else has a usable default.
type Config struct {
	View      *view.Transform
	HitTester HitTester
	Scheduler Scheduler    // nil disables auto-scroll
	Confirmer Confirmer    // nil confirms every delete
	Cleaner   Cleaner      // nil skips cleanup
	Resolver  DropResolver // nil means AsChild

	// OwnsResources reports whether a payload needs cleanup before delete.
	OwnsResources func(payload any) bool

	Hooks  Hooks
	Logger *log.Logger
}

// Controller is the drag state machine. It owns the active [Session] and is
// the only code allowed to position the dragged node while one exists.
// Controller is not safe for concurrent use.
type Controller struct {
	cfg Config
	d   *diagram.Diagram
	log *log.Logger

	state    State
	session  *Session
	started  bool // DragStarted was fired for the current session
	readOnly bool

	scroll    Stopper
	scrollDir float64

	// gen invalidates asynchronous confirm and cleanup callbacks that
	// arrive after the session they belong to was cancelled.
	gen     uint64
	outcome Outcome
}

// New creates an idle controller for d.
func New(d *diagram.Diagram, cfg Config) *Controller {
	if cfg.Resolver == nil {
		cfg.Resolver = AsChild
	}
	if cfg.OwnsResources == nil {
		cfg.OwnsResources = func(any) bool { return false }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{cfg: cfg, d: d, log: logger}
}

// SetDiagram swaps the diagram being edited. Any active drag is cancelled.
func (c *Controller) SetDiagram(d *diagram.Diagram) {
	c.Cancel()
	c.d = d
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Session returns a copy of the active session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Pinned returns the node under drag authority, or None. A node dropped on
// the trash stays pinned until its delete is resolved.
func (c *Controller) Pinned() diagram.NodeID {
	if c.session == nil {
		return diagram.None
	}
	if c.state == Dragging || (c.state == Resolving && c.started) {
		return c.session.NodeID
	}
	return diagram.None
}

// Scrolling reports whether the auto-scroll timer is running.
func (c *Controller) Scrolling() bool { return c.scroll != nil }

// ReadOnly reports whether edits are refused.
func (c *Controller) ReadOnly() bool { return c.readOnly }

// SetReadOnly toggles read-only mode. Entering it cancels a press or drag in
// progress; a pending delete confirmation is left to finish.
func (c *Controller) SetReadOnly(ro bool) {
	c.readOnly = ro
	if ro && (c.state == Considering || c.state == Dragging) {
		c.Cancel()
	}
}

// PointerDown registers a press on node id at a screen position. It reports
// whether the press was accepted; presses in read-only mode, on the end
// marker or outside Idle are refused.
func (c *Controller) PointerDown(id diagram.NodeID, x, y float64) bool {
	if c.state != Idle || c.readOnly {
		return false
	}
	n, ok := c.d.Node(id)
	if !ok || n.IsEndMarker() {
		return false
	}
	mx, my := c.cfg.View.ToModel(x, y)
	c.session = &Session{
		NodeID:   id,
		Payload:  n.Payload,
		PointerX: x, PointerY: y,
		X: n.X, Y: n.Y,
		OriginX: n.X, OriginY: n.Y,
		GrabDX: mx - n.X, GrabDY: my - n.Y,
		startX: x, startY: y,
	}
	c.started = false
	c.state = Considering
	return true
}

// BeginExternal starts dragging a payload that is not in the diagram yet,
// e.g. a new object pulled from a palette. It goes straight to Dragging.
func (c *Controller) BeginExternal(payload any, x, y float64) bool {
	if c.state != Idle || c.readOnly || payload == nil {
		return false
	}
	mx, my := c.cfg.View.ToModel(x, y)
	c.session = &Session{
		Payload:  payload,
		PointerX: x, PointerY: y,
		X: mx, Y: my,
		OriginX: mx, OriginY: my,
		startX: x, startY: y,
	}
	c.state = Dragging
	c.start()
	c.follow()
	return true
}

// PointerMove feeds a pointer position. It is ignored outside Considering
// and Dragging.
func (c *Controller) PointerMove(x, y float64) {
	switch c.state {
	case Considering:
		s := c.session
		s.PointerX, s.PointerY = x, y
		if math.Abs(x-s.startX) <= Threshold && math.Abs(y-s.startY) <= Threshold {
			return
		}
		c.state = Dragging
		if c.d.Selected() == s.NodeID && c.cfg.Hooks.ClearSelection != nil {
			c.cfg.Hooks.ClearSelection()
		}
		c.start()
		c.follow()
		c.updateScroll()
	case Dragging:
		c.session.PointerX, c.session.PointerY = x, y
		c.follow()
		c.updateScroll()
	}
}

// PointerUp resolves the press or drag at a screen position.
func (c *Controller) PointerUp(x, y float64) Outcome {
	switch c.state {
	case Considering:
		id := c.session.NodeID
		c.session = nil
		c.state = Idle
		return Outcome{Kind: OutcomeClick, NodeID: id}
	case Dragging:
	case Resolving:
		return Outcome{Kind: OutcomePending, NodeID: c.session.NodeID}
	default:
		return Outcome{}
	}

	s := c.session
	s.PointerX, s.PointerY = x, y
	c.follow()
	c.stopScroll()

	switch s.Intent {
	case IntentDeleteOverTrash:
		return c.beginDelete()
	case IntentMove:
		return c.finish(c.commitMove())
	default:
		c.restore()
		return c.finish(Outcome{Kind: OutcomeNone, NodeID: s.NodeID})
	}
}

// RequestDelete runs the confirm, cleanup and delete flow for id without a
// drag. The returned outcome is OutcomePending while the confirmer or
// cleaner has not answered.
func (c *Controller) RequestDelete(id diagram.NodeID) (Outcome, error) {
	if c.readOnly {
		return Outcome{}, ErrReadOnly
	}
	if c.state != Idle {
		return Outcome{}, ErrBusy
	}
	n, ok := c.d.Node(id)
	if !ok {
		return Outcome{}, diagram.ErrUnknownNode
	}
	if n.IsEndMarker() {
		return Outcome{}, diagram.ErrEndMarker
	}
	c.session = &Session{
		NodeID: id, Payload: n.Payload,
		X: n.X, Y: n.Y, OriginX: n.X, OriginY: n.Y,
		Intent: IntentDeleteOverTrash,
	}
	c.started = false
	return c.beginDelete(), nil
}

// Cancel abandons whatever is in progress and returns to Idle. The dragged
// node goes back to its pre-drag position. It reports whether anything was
// cancelled.
func (c *Controller) Cancel() bool {
	if c.state == Idle {
		return false
	}
	c.log.Debug("drag cancelled", "state", c.state)
	if c.state == Considering {
		c.session = nil
		c.state = Idle
		return true
	}
	c.stopScroll()
	c.restore()
	c.finish(Outcome{Kind: OutcomeNone, NodeID: c.session.NodeID, Err: ErrCancelled})
	return true
}

func (c *Controller) start() {
	c.started = true
	c.log.Debug("drag started", "node", c.session.NodeID, "external", c.session.External())
	if c.cfg.Hooks.DragStarted != nil {
		c.cfg.Hooks.DragStarted()
	}
}

// follow moves the dragged item under the pointer and recomputes the
// candidate target and intent.
func (c *Controller) follow() {
	s := c.session
	mx, my := c.cfg.View.ToModel(s.PointerX, s.PointerY)
	s.X, s.Y = mx-s.GrabDX, my-s.GrabDY
	if n, ok := c.d.Node(s.NodeID); ok {
		n.X, n.Y = s.X, s.Y
	}

	s.Candidate, s.Intent = diagram.None, IntentNone
	t := c.cfg.HitTester.HitTest(s.PointerX, s.PointerY, s.NodeID)
	switch t.Kind {
	case TargetTrash:
		if !s.External() {
			s.Intent = IntentDeleteOverTrash
		}
	case TargetNode:
		if t.NodeID == s.NodeID {
			return
		}
		if _, ok := c.d.Node(t.NodeID); !ok {
			return
		}
		s.Candidate = t.NodeID
		if s.External() || !c.d.IsAncestor(s.NodeID, t.NodeID) {
			s.Intent = IntentMove
		}
	}
}

func (c *Controller) updateScroll() {
	dir := c.edgeDirection()
	c.scrollDir = dir
	switch {
	case dir == 0:
		c.stopScroll()
	case c.scroll == nil && c.cfg.Scheduler != nil:
		c.scroll = c.cfg.Scheduler.Every(ScrollInterval, c.tick)
	}
}

// edgeDirection returns -1 near the top edge, +1 near the bottom edge and 0
// elsewhere.
func (c *Controller) edgeDirection() float64 {
	_, h := c.cfg.View.Viewport()
	y := c.session.PointerY
	switch {
	case h <= 0:
		return 0
	case y < EdgeThreshold:
		return -1
	case y > h-EdgeThreshold:
		return 1
	default:
		return 0
	}
}

// tick is the auto-scroll step.
func (c *Controller) tick() {
	if c.state != Dragging {
		c.stopScroll()
		return
	}
	dir := c.edgeDirection()
	if dir == 0 {
		c.stopScroll()
		return
	}
	if moved := c.cfg.View.PanBy(dir * ScrollStep); moved == 0 {
		c.stopScroll()
		return
	}
	c.follow()
}

func (c *Controller) stopScroll() {
	if c.scroll != nil {
		c.scroll.Stop()
		c.scroll = nil
	}
	c.scrollDir = 0
}

func (c *Controller) commitMove() Outcome {
	s := c.session
	out := Outcome{Kind: OutcomeNone, NodeID: s.NodeID, Target: s.Candidate}
	t, ok := c.d.Node(s.Candidate)
	if !ok {
		c.restore()
		out.Err = diagram.ErrUnknownNode
		return out
	}
	place, ok := c.cfg.Resolver.ResolveDrop(s.Payload, t)
	if !ok {
		c.restore()
		out.Err = ErrRejected
		return out
	}
	out.Placement = place

	if s.External() {
		id, err := c.insert(s.Payload, t, place)
		if err != nil {
			out.Err = err
			return out
		}
		out.Kind, out.NodeID = OutcomeMove, id
		return out
	}

	// Checked again here: the tree may have changed since the last hover.
	if c.d.IsAncestor(s.NodeID, t.ID) {
		c.restore()
		out.Err = diagram.ErrCycle
		return out
	}
	if err := c.d.Move(s.NodeID, t.ID, place); err != nil {
		c.restore()
		out.Err = err
		return out
	}
	out.Kind = OutcomeMove
	return out
}

func (c *Controller) insert(payload any, t *diagram.Node, place diagram.Placement) (diagram.NodeID, error) {
	if place != diagram.PlaceAsChild && t.Parent() == nil {
		return diagram.None, diagram.ErrRootPlacement
	}
	n, err := c.d.Insert(payload, t.ID)
	if err != nil {
		return diagram.None, err
	}
	if place != diagram.PlaceAsChild && !t.IsEndMarker() {
		if err := c.d.Move(n.ID, t.ID, place); err != nil {
			_, _ = c.d.Delete(n.ID)
			return diagram.None, err
		}
	}
	return n.ID, nil
}

// beginDelete enters Resolving and asks the confirmer. The returned outcome
// is final if the confirmer and cleaner answered synchronously.
func (c *Controller) beginDelete() Outcome {
	s := c.session
	c.state = Resolving
	c.gen++
	gen := c.gen
	req := DeleteRequest{NodeID: s.NodeID, Payload: s.Payload, OwnsResources: c.cfg.OwnsResources(s.Payload)}
	c.log.Debug("delete requested", "node", s.NodeID, "resources", req.OwnsResources)

	answered := false
	confirmed := func(ok bool) {
		if answered || gen != c.gen {
			return
		}
		answered = true
		c.confirmed(gen, req, ok)
	}
	if c.cfg.Confirmer == nil {
		confirmed(true)
	} else {
		c.cfg.Confirmer.ConfirmDelete(req, confirmed)
	}

	if c.state == Resolving && c.gen == gen {
		return Outcome{Kind: OutcomePending, NodeID: s.NodeID}
	}
	return c.outcome
}

func (c *Controller) confirmed(gen uint64, req DeleteRequest, ok bool) {
	if !ok {
		c.restore()
		c.finish(Outcome{Kind: OutcomeNone, NodeID: req.NodeID, Err: ErrCancelled})
		return
	}
	if !req.OwnsResources || c.cfg.Cleaner == nil {
		c.finish(c.commitDelete(req.NodeID))
		return
	}
	done := false
	c.cfg.Cleaner.Cleanup(req.Payload, func(err error) {
		if done || gen != c.gen {
			return
		}
		done = true
		if err != nil {
			c.log.Debug("cleanup failed", "node", req.NodeID, "err", err)
			c.restore()
			if c.cfg.Hooks.Failure != nil {
				c.cfg.Hooks.Failure(req.Payload, err)
			}
			c.finish(Outcome{Kind: OutcomeNone, NodeID: req.NodeID, Err: err})
			return
		}
		c.finish(c.commitDelete(req.NodeID))
	})
}

func (c *Controller) commitDelete(id diagram.NodeID) Outcome {
	if _, err := c.d.Delete(id); err != nil {
		c.restore()
		return Outcome{Kind: OutcomeNone, NodeID: id, Err: err}
	}
	return Outcome{Kind: OutcomeDelete, NodeID: id}
}

// restore puts the dragged node back where it was before the drag.
func (c *Controller) restore() {
	if c.session == nil {
		return
	}
	if n, ok := c.d.Node(c.session.NodeID); ok {
		n.X, n.Y = c.session.OriginX, c.session.OriginY
	}
}

// finish returns to Idle and hands position authority back in one step.
func (c *Controller) finish(out Outcome) Outcome {
	c.stopScroll()
	started := c.started
	c.session = nil
	c.started = false
	c.state = Idle
	c.gen++
	c.outcome = out
	c.log.Debug("drag resolved", "outcome", out.Kind, "node", out.NodeID)

	if c.cfg.Hooks.Release != nil {
		c.cfg.Hooks.Release()
	}
	if (out.Kind == OutcomeMove || out.Kind == OutcomeDelete) && c.cfg.Hooks.StructuralChange != nil {
		c.cfg.Hooks.StructuralChange()
	}
	if started && c.cfg.Hooks.DragEnded != nil {
		c.cfg.Hooks.DragEnded()
	}
	return out
}
