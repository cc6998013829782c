package drag

import (
	"time"

	"github.com/matzehuels/coursemap/pkg/diagram"
)

// Tuning constants. Distances are in screen pixels.
const (
	// Threshold is how far the pointer must travel on either axis before a
	// press turns into a drag.
	Threshold = 5.0
	// EdgeThreshold is the height of the bands at the top and bottom of the
	// viewport that trigger auto-scroll.
	EdgeThreshold = 40.0
	// ScrollInterval is the auto-scroll tick period.
	ScrollInterval = 30 * time.Millisecond
	// ScrollStep is the distance scrolled per tick.
	ScrollStep = 12.0
)

// State is the controller's position in the drag lifecycle.
type State int

const (
	Idle State = iota
	Considering
	Dragging
	Resolving
)

func (s State) String() string {
	switch s {
	case Considering:
		return "considering"
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	default:
		return "idle"
	}
}

// Intent is what releasing the pointer right now would do.
type Intent int

const (
	IntentNone Intent = iota
	IntentMove
	IntentDeleteOverTrash
)

func (i Intent) String() string {
	switch i {
	case IntentMove:
		return "move"
	case IntentDeleteOverTrash:
		return "delete"
	default:
		return "none"
	}
}

// TargetKind classifies what lies under the pointer.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetNode
	TargetTrash
)

// Target is the result of a hit test.
type Target struct {
	Kind   TargetKind
	NodeID diagram.NodeID // set for TargetNode
}

// HitTester finds what lies under a screen point. The node being dragged is
// passed as exclude and must never be reported: it sits under the pointer for
// the whole drag.
type HitTester interface {
	HitTest(x, y float64, exclude diagram.NodeID) Target
}

// Stopper cancels a recurring job.
type Stopper interface {
	Stop()
}

// Scheduler runs fn every interval until stopped. Implementations must call
// fn on the same goroutine that drives the controller.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Stopper
}

// DeleteRequest describes a pending deletion handed to a [Confirmer].
type DeleteRequest struct {
	NodeID  diagram.NodeID
	Payload any
	// OwnsResources is true when the payload holds externally stored
	// resources that will be cleaned up too; confirmers use it to pick
	// their wording.
	OwnsResources bool
}

// Confirmer asks the user to confirm a deletion. done may be called
// synchronously or at any later point; calls after the drag was cancelled
// are ignored.
type Confirmer interface {
	ConfirmDelete(req DeleteRequest, done func(confirmed bool))
}

// Cleaner releases the external resources owned by a payload before its node
// is deleted. The node is only removed when done reports a nil error.
type Cleaner interface {
	Cleanup(payload any, done func(error))
}

// DropResolver decides where a dragged payload lands when released over
// target. Returning false rejects the drop.
type DropResolver interface {
	ResolveDrop(payload any, target *diagram.Node) (diagram.Placement, bool)
}

// DropResolverFunc adapts a function to [DropResolver].
type DropResolverFunc func(payload any, target *diagram.Node) (diagram.Placement, bool)

// ResolveDrop calls f.
func (f DropResolverFunc) ResolveDrop(payload any, target *diagram.Node) (diagram.Placement, bool) {
	return f(payload, target)
}

// AsChild is the default drop policy: the dragged item becomes the last
// child of the target.
var AsChild = DropResolverFunc(func(any, *diagram.Node) (diagram.Placement, bool) {
	return diagram.PlaceAsChild, true
})

// Hooks are called synchronously from inside controller methods. Any of
// them may be nil.
type Hooks struct {
	// DragStarted fires when a press crosses the threshold or an external
	// drag begins.
	DragStarted func()
	// DragEnded fires once per started drag, whatever the outcome.
	DragEnded func()
	// ClearSelection fires when the dragged node is the selected one.
	ClearSelection func()
	// StructuralChange fires after a committed move, insert or delete.
	StructuralChange func()
	// Failure fires when a cleanup failed and the delete was not applied.
	Failure func(payload any, err error)
	// Release fires when the controller hands position authority back to
	// the layout. The host re-runs layout and reconciliation from it.
	Release func()
}

// Session is the transient state of an active drag.
type Session struct {
	NodeID  diagram.NodeID // None for external drags
	Payload any

	// PointerX and PointerY are the last pointer position in screen space.
	PointerX, PointerY float64
	// X and Y are the dragged item's model position.
	X, Y float64

	Candidate diagram.NodeID
	Intent    Intent

	OriginX, OriginY float64 // model position before the drag
	GrabDX, GrabDY   float64 // pointer offset from the node's corner, model units

	startX, startY float64
}

// External reports whether the session drags a payload that has no node yet.
func (s Session) External() bool { return s.NodeID == diagram.None }

// OutcomeKind classifies how a pointer release resolved.
type OutcomeKind int

const (
	// OutcomeNone means nothing changed; the node was restored.
	OutcomeNone OutcomeKind = iota
	// OutcomeClick means the press never became a drag.
	OutcomeClick
	// OutcomeMove means a node was relinked or a payload inserted.
	OutcomeMove
	// OutcomeDelete means a node was deleted.
	OutcomeDelete
	// OutcomePending means a delete confirmation or cleanup is in flight.
	OutcomePending
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeClick:
		return "click"
	case OutcomeMove:
		return "move"
	case OutcomeDelete:
		return "delete"
	case OutcomePending:
		return "pending"
	default:
		return "none"
	}
}

// Outcome is the result of a pointer release.
type Outcome struct {
	Kind      OutcomeKind
	NodeID    diagram.NodeID // the dragged, clicked, inserted or deleted node
	Target    diagram.NodeID
	Placement diagram.Placement
	Err       error // why a move or delete fell back to OutcomeNone
}
