package diagram

import "reflect"

// Keyed is implemented by payloads that carry a stable identity across
// reloads. Two Keyed payloads with the same key are considered equal even if
// they are different values.
type Keyed interface {
	PayloadKey() string
}

// SamePayload reports whether a and b refer to the same domain object.
// Keyed payloads compare by key; everything else compares with ==.
// Payloads whose values cannot be compared, including structs holding a
// slice behind an interface field, are never equal.
func SamePayload(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ka, okA := a.(Keyed)
	kb, okB := b.(Keyed)
	if okA && okB {
		return ka.PayloadKey() == kb.PayloadKey()
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}

// Item is one domain object handed to [Build], with its ordered children.
type Item struct {
	Payload  any
	Children []*Item
}

// Input is the domain tree a diagram is built from.
type Input struct {
	Root      *Item
	EndMarker bool // keep an end marker after the last node of the main chain
}

// Chain builds a linear Input from an ordered list of payloads: every
// payload becomes the only child of the one before it.
func Chain(endMarker bool, payloads ...any) Input {
	in := Input{EndMarker: endMarker}
	var last *Item
	for _, p := range payloads {
		it := &Item{Payload: p}
		if last == nil {
			in.Root = it
		} else {
			last.Children = append(last.Children, it)
		}
		last = it
	}
	return in
}

// Build creates a diagram from scratch. Node IDs are assigned in pre-order
// starting at 1; the end marker, if enabled, is created last.
func Build(in Input) *Diagram {
	d := New(in.EndMarker)
	if in.Root == nil {
		return d
	}

	var visit func(it *Item, parent *Node)
	visit = func(it *Item, parent *Node) {
		n := d.newNode(KindTransition, it.Payload)
		d.byID[n.ID] = n
		if parent == nil {
			d.root = n
		} else {
			attach(parent, n, -1)
		}
		for _, c := range it.Children {
			if c != nil {
				visit(c, n)
			}
		}
	}
	visit(in.Root, nil)
	d.settle()
	return d
}

// Export converts the diagram back into an Input, dropping the end marker.
func (d *Diagram) Export() Input {
	in := Input{EndMarker: d.allowEnd}
	var visit func(n *Node) *Item
	visit = func(n *Node) *Item {
		it := &Item{Payload: n.Payload}
		for _, c := range n.Children {
			if !c.IsEndMarker() {
				it.Children = append(it.Children, visit(c))
			}
		}
		return it
	}
	if d.root != nil {
		in.Root = visit(d.root)
	}
	return in
}
