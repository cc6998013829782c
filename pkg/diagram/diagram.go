package diagram

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownNode is returned when an operation references a node ID that
	// is not present in the diagram.
	ErrUnknownNode = errors.New("unknown node")

	// ErrCycle is returned by [Diagram.Move] when the target is the moved node
	// itself or one of its descendants. The tree is left untouched.
	ErrCycle = errors.New("move would create a cycle")

	// ErrEndMarker is returned when an operation tries to move, delete or
	// parent the end marker. The end marker is owned by the diagram and
	// always stays the last leaf of the main chain.
	ErrEndMarker = errors.New("end marker cannot be edited")

	// ErrRootPlacement is returned by [Diagram.Move] when a sibling placement
	// (before/after) targets the root, which has no siblings.
	ErrRootPlacement = errors.New("root has no siblings")
)

// NodeID identifies a node for as long as it is part of the diagram.
// IDs start at 1; the zero value means "no node".
type NodeID int

// None is the zero NodeID.
const None NodeID = 0

// Kind distinguishes course transitions from the terminal end marker.
type Kind int

const (
	// KindTransition is a node backed by an external domain object.
	KindTransition Kind = iota
	// KindEndMarker is the optional terminal node. It has no payload.
	KindEndMarker
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	if k == KindEndMarker {
		return "end"
	}
	return "transition"
}

// Placement selects where [Diagram.Move] puts a node relative to its target.
type Placement int

const (
	// PlaceAsChild appends the moved node to the target's children.
	PlaceAsChild Placement = iota
	// PlaceBefore inserts the moved node as the target's previous sibling.
	PlaceBefore
	// PlaceAfter inserts the moved node as the target's next sibling.
	PlaceAfter
)

// Node is a diagram vertex.
//
// Depth, Row and Lane are recomputed by every layout pass. X and Y are the
// current position; PrevX and PrevY hold the position of the last completed
// layout and are used to origin entering nodes.
type Node struct {
	ID      NodeID
	Kind    Kind
	Payload any // nil for the end marker

	Depth int
	Row   int
	Lane  int

	Width, Height float64
	X, Y          float64
	PrevX, PrevY  float64

	Children []*Node
	parent   *Node
}

// Parent returns the node's parent, or nil for the root and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// IsEndMarker reports whether n is the terminal end marker.
func (n *Node) IsEndMarker() bool { return n.Kind == KindEndMarker }

// Link is a directed edge from a parent to one of its children. Since every
// node has at most one parent, Target alone identifies a link.
type Link struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
}

// Diagram is the aggregate root of the tree model. It owns every node and
// keeps an ID index consistent with the tree structure.
//
// The zero value is not usable - use [New] or [Build].
// Diagram is not safe for concurrent use.
type Diagram struct {
	root     *Node
	byID     map[NodeID]*Node
	nextID   NodeID
	selected NodeID

	allowEnd bool
	end      *Node
}

// New creates an empty diagram. When endMarker is true the diagram keeps a
// single end marker attached to the last node of its main chain.
func New(endMarker bool) *Diagram {
	return &Diagram{
		byID:     make(map[NodeID]*Node),
		nextID:   1,
		allowEnd: endMarker,
	}
}

// Root returns the root node, or nil for an empty diagram.
func (d *Diagram) Root() *Node { return d.root }

// Len returns the number of live nodes, end marker included.
func (d *Diagram) Len() int { return len(d.byID) }

// EndMarkerAllowed reports whether the diagram maintains an end marker.
func (d *Diagram) EndMarkerAllowed() bool { return d.allowEnd }

// EndMarker returns the attached end marker, if any.
func (d *Diagram) EndMarker() (*Node, bool) {
	if d.end == nil {
		return nil, false
	}
	_, ok := d.byID[d.end.ID]
	return d.end, ok
}

// Node returns the live node with the given ID.
func (d *Diagram) Node(id NodeID) (*Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// Nodes returns all live nodes in depth-first pre-order, children in order.
func (d *Diagram) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.byID))
	walk(d.root, func(n *Node) { nodes = append(nodes, n) })
	return nodes
}

// Links returns one link per non-root node, in pre-order of the target.
func (d *Diagram) Links() []Link {
	var links []Link
	walk(d.root, func(n *Node) {
		if n.parent != nil {
			links = append(links, Link{Source: n.parent.ID, Target: n.ID})
		}
	})
	return links
}

// Selected returns the selected node ID, or [None].
func (d *Diagram) Selected() NodeID { return d.selected }

// SetSelected changes the selection. Selecting an ID that is not live
// returns ErrUnknownNode and leaves the selection unchanged.
func (d *Diagram) SetSelected(id NodeID) error {
	if id != None {
		if _, ok := d.byID[id]; !ok {
			return ErrUnknownNode
		}
	}
	d.selected = id
	return nil
}

// FindPayload returns the first node, in pre-order, whose payload equals p
// according to [SamePayload].
func (d *Diagram) FindPayload(p any) (*Node, bool) {
	if p == nil {
		return nil, false
	}
	var found *Node
	walk(d.root, func(n *Node) {
		if found == nil && SamePayload(n.Payload, p) {
			found = n
		}
	})
	return found, found != nil
}

// IsAncestor reports whether a is b or one of b's ancestors.
func (d *Diagram) IsAncestor(a, b NodeID) bool {
	n, ok := d.byID[b]
	if !ok {
		return false
	}
	for ; n != nil; n = n.parent {
		if n.ID == a {
			return true
		}
	}
	return false
}

// Descendants returns the IDs of n's subtree, n included, in pre-order.
func (d *Diagram) Descendants(id NodeID) []NodeID {
	n, ok := d.byID[id]
	if !ok {
		return nil
	}
	var ids []NodeID
	walk(n, func(c *Node) { ids = append(ids, c.ID) })
	return ids
}

// Insert creates a transition node for payload and attaches it.
//
// With parent == None the node becomes the new root and the previous root,
// if any, becomes its only child. A parent that is the end marker is
// redirected so the new node lands just before the end marker.
func (d *Diagram) Insert(payload any, parent NodeID) (*Node, error) {
	var p *Node
	if parent != None {
		var ok bool
		if p, ok = d.byID[parent]; !ok {
			return nil, ErrUnknownNode
		}
	}

	n := d.newNode(KindTransition, payload)
	switch {
	case p == nil && d.root == nil:
		d.root = n
	case p == nil:
		old := d.root
		d.root = n
		attach(n, old, -1)
	case p.IsEndMarker():
		owner := p.parent
		d.detachEnd()
		attach(owner, n, -1)
	default:
		attach(p, n, -1)
	}
	d.byID[n.ID] = n
	d.settle()
	return n, nil
}

// Move detaches the subtree rooted at id and re-attaches it relative to
// target. Moving a node onto itself or into its own subtree returns ErrCycle
// without modifying the tree.
func (d *Diagram) Move(id, target NodeID, place Placement) error {
	n, ok := d.byID[id]
	if !ok {
		return ErrUnknownNode
	}
	t, ok := d.byID[target]
	if !ok {
		return ErrUnknownNode
	}
	if n.IsEndMarker() {
		return ErrEndMarker
	}
	if d.IsAncestor(id, target) {
		return ErrCycle
	}
	if t.IsEndMarker() {
		// Dropping on the end marker means "append to the end of the chain".
		t, place = t.parent, PlaceAsChild
		if t == nil || d.IsAncestor(id, t.ID) {
			return ErrCycle
		}
	}
	if place != PlaceAsChild && t.parent == nil {
		return ErrRootPlacement
	}

	d.detachEnd()
	detach(n)
	switch place {
	case PlaceAsChild:
		attach(t, n, -1)
	case PlaceBefore:
		attach(t.parent, n, slices.Index(t.parent.Children, t))
	case PlaceAfter:
		attach(t.parent, n, slices.Index(t.parent.Children, t)+1)
	}
	d.settle()
	return nil
}

// Delete removes a single node and relinks its children, in order, to the
// node's former parent at the node's former position. Deleting the root
// promotes its first child; the remaining children are appended to it.
//
// If the deleted node was selected the selection is cleared and cleared is
// true.
func (d *Diagram) Delete(id NodeID) (cleared bool, err error) {
	n, ok := d.byID[id]
	if !ok {
		return false, ErrUnknownNode
	}
	if n.IsEndMarker() {
		return false, ErrEndMarker
	}

	d.detachEnd()
	kids := n.Children
	n.Children = nil
	for _, c := range kids {
		c.parent = nil
	}

	if p := n.parent; p != nil {
		idx := slices.Index(p.Children, n)
		detach(n)
		for i, c := range kids {
			attach(p, c, idx+i)
		}
	} else {
		d.root = nil
		if len(kids) > 0 {
			d.root = kids[0]
			for _, c := range kids[1:] {
				attach(d.root, c, -1)
			}
		}
	}

	delete(d.byID, id)
	cleared = d.selected == id
	if cleared {
		d.selected = None
	}
	d.settle()
	return cleared, nil
}

// DeleteBranch removes the node and its whole subtree. It returns the removed
// IDs in pre-order and whether the selection was inside the branch.
func (d *Diagram) DeleteBranch(id NodeID) (removed []NodeID, cleared bool, err error) {
	n, ok := d.byID[id]
	if !ok {
		return nil, false, ErrUnknownNode
	}
	if n.IsEndMarker() {
		return nil, false, ErrEndMarker
	}

	d.detachEnd()
	removed = d.Descendants(id)
	if n.parent != nil {
		detach(n)
	} else {
		d.root = nil
	}
	for _, rid := range removed {
		delete(d.byID, rid)
		if rid == d.selected {
			d.selected = None
			cleared = true
		}
	}
	d.settle()
	return removed, cleared, nil
}

// UpdateDepths recomputes Depth for every live node.
func (d *Diagram) UpdateDepths() {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		n.Depth = depth
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	if d.root != nil {
		visit(d.root, 0)
	}
}

func (d *Diagram) newNode(kind Kind, payload any) *Node {
	n := &Node{ID: d.nextID, Kind: kind, Payload: payload}
	d.nextID++
	return n
}

// settle re-attaches the end marker to the last leaf of the main chain and
// refreshes depths. It runs after every structural change.
func (d *Diagram) settle() {
	if d.allowEnd && d.root != nil {
		if d.end == nil {
			d.end = d.newNode(KindEndMarker, nil)
		}
		d.detachEnd()
		last := d.root
		for len(last.Children) > 0 {
			last = last.Children[0]
		}
		attach(last, d.end, -1)
		d.byID[d.end.ID] = d.end
	} else if d.end != nil {
		d.detachEnd()
	}
	if _, ok := d.byID[d.selected]; !ok {
		d.selected = None
	}
	d.UpdateDepths()
}

func (d *Diagram) detachEnd() {
	if d.end == nil {
		return
	}
	if d.end.parent != nil {
		detach(d.end)
	}
	delete(d.byID, d.end.ID)
}

// attach inserts child into parent's children at idx; idx < 0 appends.
func attach(parent, child *Node, idx int) {
	child.parent = parent
	if idx < 0 || idx >= len(parent.Children) {
		parent.Children = append(parent.Children, child)
		return
	}
	parent.Children = slices.Insert(parent.Children, idx, child)
}

func detach(n *Node) {
	if p := n.parent; p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(c *Node) bool { return c == n })
	}
	n.parent = nil
}

func walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		walk(c, fn)
	}
}
