// Package reconcile diffs two renders of a diagram.
//
// A [Frame] is what was last drawn. [Reconcile] compares it with the current
// state of a [diagram.Diagram] and splits nodes and links into entering,
// updating and exiting sets, matched by stable node ID rather than by
// position, so a renderer only touches what changed.
//
// Links are keyed by their target: every node has at most one parent, so the
// target already identifies the link, and a changed source is reported as a
// reparent on the same link instead of an exit plus an enter.
package reconcile

import (
	"cmp"
	"slices"

	"github.com/matzehuels/coursemap/pkg/diagram"
)

// NodeState is the drawn state of one node.
type NodeState struct {
	ID       diagram.NodeID `json:"id"`
	ParentID diagram.NodeID `json:"parent,omitempty"`
	Kind     diagram.Kind   `json:"kind"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
}

// LinkState is the drawn state of one link.
type LinkState struct {
	Source diagram.NodeID `json:"source"`
	Target diagram.NodeID `json:"target"`
}

// Frame is the set of nodes and links on screen after a render.
type Frame struct {
	Nodes map[diagram.NodeID]NodeState
	Links map[diagram.NodeID]LinkState // keyed by target
}

// Empty returns a frame with nothing drawn.
func Empty() Frame {
	return Frame{
		Nodes: make(map[diagram.NodeID]NodeState),
		Links: make(map[diagram.NodeID]LinkState),
	}
}

// NodeChange describes one node transition. From is where the node is drawn
// when the transition starts; To is where it ends. Renderers may animate
// between the two or snap to To.
type NodeChange struct {
	ID     diagram.NodeID
	From   NodeState
	To     NodeState
	Pinned bool // under drag authority: From and To are the live position
}

// LinkChange describes one link transition.
type LinkChange struct {
	Target     diagram.NodeID
	From       LinkState
	To         LinkState
	Reparented bool // the source changed since the previous frame
}

// Result is the outcome of a reconciliation pass. All slices are ordered by
// node ID.
type Result struct {
	Entering []NodeChange
	Updating []NodeChange
	Exiting  []NodeChange

	LinksEntering []LinkChange
	LinksUpdating []LinkChange
	LinksExiting  []LinkChange

	// Next is the frame to pass to the following Reconcile call.
	Next Frame
}

// Changed reports whether anything entered, exited or moved.
func (r Result) Changed() bool {
	if len(r.Entering) > 0 || len(r.Exiting) > 0 || len(r.LinksEntering) > 0 || len(r.LinksExiting) > 0 {
		return true
	}
	for _, u := range r.Updating {
		if u.From != u.To {
			return true
		}
	}
	for _, l := range r.LinksUpdating {
		if l.Reparented {
			return true
		}
	}
	return false
}

// Reconcile diffs prev against the current diagram. The pinned node, if
// any, is being dragged: its live position is reported as both From and To
// and is never replaced by a layout position.
func Reconcile(prev Frame, d *diagram.Diagram, pinned diagram.NodeID) Result {
	if prev.Nodes == nil {
		prev = Empty()
	}
	next := Empty()
	for _, n := range d.Nodes() {
		next.Nodes[n.ID] = stateOf(n)
	}
	for _, l := range d.Links() {
		next.Links[l.Target] = LinkState{Source: l.Source, Target: l.Target}
	}

	var res Result
	for id, to := range next.Nodes {
		from, seen := prev.Nodes[id]
		switch {
		case !seen:
			res.Entering = append(res.Entering, NodeChange{ID: id, From: enterOrigin(to, prev, d), To: to})
		case id == pinned:
			res.Updating = append(res.Updating, NodeChange{ID: id, From: to, To: to, Pinned: true})
		default:
			res.Updating = append(res.Updating, NodeChange{ID: id, From: from, To: to})
		}
	}
	for id, from := range prev.Nodes {
		if _, live := next.Nodes[id]; !live {
			res.Exiting = append(res.Exiting, NodeChange{ID: id, From: from, To: exitTarget(from, prev, next)})
		}
	}

	for target, to := range next.Links {
		from, seen := prev.Links[target]
		if !seen {
			res.LinksEntering = append(res.LinksEntering, LinkChange{Target: target, From: to, To: to})
			continue
		}
		res.LinksUpdating = append(res.LinksUpdating, LinkChange{
			Target: target, From: from, To: to, Reparented: from.Source != to.Source,
		})
	}
	for target, from := range prev.Links {
		if _, live := next.Links[target]; !live {
			res.LinksExiting = append(res.LinksExiting, LinkChange{Target: target, From: from, To: from})
		}
	}

	sortNodes(res.Entering, res.Updating, res.Exiting)
	sortLinks(res.LinksEntering, res.LinksUpdating, res.LinksExiting)
	res.Next = next
	return res
}

func stateOf(n *diagram.Node) NodeState {
	s := NodeState{ID: n.ID, Kind: n.Kind, X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
	if p := n.Parent(); p != nil {
		s.ParentID = p.ID
	}
	return s
}

// enterOrigin places an entering node at its parent's previous position, or
// at its own final position when the parent has no history.
func enterOrigin(to NodeState, prev Frame, d *diagram.Diagram) NodeState {
	from := to
	if p, ok := prev.Nodes[to.ParentID]; ok {
		from.X, from.Y = p.X, p.Y
		return from
	}
	if p, ok := d.Node(to.ParentID); ok && (p.PrevX != 0 || p.PrevY != 0) {
		from.X, from.Y = p.PrevX, p.PrevY
	}
	return from
}

// exitTarget collapses an exiting node toward its former parent's last
// known location: the parent's new position if it survived, its previous
// one otherwise.
func exitTarget(from NodeState, prev, next Frame) NodeState {
	to := from
	if p, ok := next.Nodes[from.ParentID]; ok {
		to.X, to.Y = p.X, p.Y
	} else if p, ok := prev.Nodes[from.ParentID]; ok {
		to.X, to.Y = p.X, p.Y
	}
	return to
}

func sortNodes(sets ...[]NodeChange) {
	for _, s := range sets {
		slices.SortFunc(s, func(a, b NodeChange) int { return cmp.Compare(a.ID, b.ID) })
	}
}

func sortLinks(sets ...[]LinkChange) {
	for _, s := range sets {
		slices.SortFunc(s, func(a, b LinkChange) int { return cmp.Compare(a.Target, b.Target) })
	}
}
