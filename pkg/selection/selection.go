// Package selection tracks the single selected diagram node.
package selection

import (
	"github.com/matzehuels/coursemap/pkg/diagram"
)

// Class names produced by [Controller.Classes].
const (
	ClassNode     = "node"
	ClassSelected = "node selected"
)

// Notify receives the selected payload, or nil when the selection cleared.
type Notify func(payload any)

// Controller is the only writer of a diagram's selection.
type Controller struct {
	d      *diagram.Diagram
	notify Notify

	// current mirrors the diagram's selection so Prune can tell that a node
	// vanished even after the diagram dropped it.
	current diagram.NodeID
}

// New returns a controller for d. notify may be nil.
func New(d *diagram.Diagram, notify Notify) *Controller {
	return &Controller{d: d, notify: notify, current: d.Selected()}
}

// SetDiagram switches to a rebuilt diagram without notifying.
func (c *Controller) SetDiagram(d *diagram.Diagram) {
	c.d = d
	c.current = d.Selected()
}

// Selected returns the selected node ID, or None.
func (c *Controller) Selected() diagram.NodeID { return c.current }

// Select selects id, or clears the selection when id is None. Selecting an
// ID that is not in the diagram clears instead. When notify is true and the
// selection changed, the listener receives the new payload.
// It reports whether the selection changed.
func (c *Controller) Select(id diagram.NodeID, notify bool) bool {
	if _, ok := c.d.Node(id); !ok {
		id = diagram.None
	}
	if id == c.current && id == c.d.Selected() {
		return false
	}
	_ = c.d.SetSelected(id)
	c.current = id
	if notify {
		c.emit()
	}
	return true
}

// Prune clears the selection if the selected node is no longer in the
// diagram and notifies once. It reports whether it cleared anything.
func (c *Controller) Prune() bool {
	if c.current == diagram.None {
		return false
	}
	if _, ok := c.d.Node(c.current); ok {
		return false
	}
	c.current = diagram.None
	_ = c.d.SetSelected(diagram.None)
	c.emit()
	return true
}

// Classes returns the visual class of every node. It is a full sweep.
func (c *Controller) Classes() map[diagram.NodeID]string {
	nodes := c.d.Nodes()
	out := make(map[diagram.NodeID]string, len(nodes))
	for _, n := range nodes {
		out[n.ID] = ClassNode
		if n.ID == c.current {
			out[n.ID] = ClassSelected
		}
	}
	return out
}

func (c *Controller) emit() {
	if c.notify == nil {
		return
	}
	var payload any
	if n, ok := c.d.Node(c.current); ok {
		payload = n.Payload
	}
	c.notify(payload)
}
