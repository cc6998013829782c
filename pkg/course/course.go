// Package course is the domain model the diagram editor is shipped with:
// courses made of transitions (video, text, quiz, slideshow, file, link),
// their display strings, and the documents they are stored in.
//
// A [Course] is a tree of [*Transition] values. [Course.Input] turns it into
// the input of a diagram, and [FromInput] turns an edited diagram back into
// a course. Transitions are identified by UUID, which is also their
// [diagram.Keyed] payload key, so the editor keeps the selection across
// reloads of the same document.
package course

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/validation"
)

// Type is the kind of course object a transition presents.
type Type string

const (
	TypeVideo     Type = "video"
	TypeText      Type = "text"
	TypeQuiz      Type = "quiz"
	TypeSlideshow Type = "slideshow"
	TypeFile      Type = "file"
	TypeLink      Type = "link"
)

// Types lists the known transition types in display order.
var Types = []Type{TypeVideo, TypeText, TypeQuiz, TypeSlideshow, TypeFile, TypeLink}

// Transition is one course object.
type Transition struct {
	ID   uuid.UUID
	Ref  string // identifier used in the source document, may be empty
	Type Type
	Name string

	// Files are externally stored resources owned by the transition. They
	// must be cleaned up before the transition is deleted.
	Files []string
}

// New returns a transition with a fresh random ID.
func New(typ Type, name string) *Transition {
	return &Transition{ID: uuid.New(), Type: typ, Name: name}
}

// PayloadKey implements [diagram.Keyed].
func (t *Transition) PayloadKey() string { return t.ID.String() }

// String returns the transition's name, or its type when unnamed.
func (t *Transition) String() string {
	if t.Name != "" {
		return t.Name
	}
	return string(t.Type)
}

// ref is the identifier written to documents.
func (t *Transition) ref() string {
	if t.Ref != "" {
		return t.Ref
	}
	return t.ID.String()
}

// Node is a transition with its ordered follow-ups.
type Node struct {
	Transition *Transition
	Children   []*Node
}

// Course is a titled tree of transitions.
type Course struct {
	Title     string
	EndMarker bool
	Root      *Node

	// Validation holds stored validation results keyed by transition name.
	Validation map[string]validation.Outcome
}

// Walk calls fn for every transition in pre-order.
func (c *Course) Walk(fn func(t *Transition, parent *Transition)) {
	var visit func(n, parent *Node)
	visit = func(n, parent *Node) {
		var p *Transition
		if parent != nil {
			p = parent.Transition
		}
		fn(n.Transition, p)
		for _, ch := range n.Children {
			visit(ch, n)
		}
	}
	if c.Root != nil {
		visit(c.Root, nil)
	}
}

// Len returns the number of transitions.
func (c *Course) Len() int {
	n := 0
	c.Walk(func(*Transition, *Transition) { n++ })
	return n
}

// Input converts the course into a diagram input.
func (c *Course) Input() diagram.Input {
	in := diagram.Input{EndMarker: c.EndMarker}
	var convert func(n *Node) *diagram.Item
	convert = func(n *Node) *diagram.Item {
		it := &diagram.Item{Payload: n.Transition}
		for _, ch := range n.Children {
			it.Children = append(it.Children, convert(ch))
		}
		return it
	}
	if c.Root != nil {
		in.Root = convert(c.Root)
	}
	return in
}

// FromInput rebuilds a course from a diagram input, e.g. after editing.
// Every payload must be a *Transition.
func FromInput(title string, in diagram.Input) (*Course, error) {
	c := &Course{Title: title, EndMarker: in.EndMarker}
	var convert func(it *diagram.Item) (*Node, error)
	convert = func(it *diagram.Item) (*Node, error) {
		t, ok := it.Payload.(*Transition)
		if !ok {
			return nil, fmt.Errorf("payload %T is not a transition", it.Payload)
		}
		n := &Node{Transition: t}
		for _, ch := range it.Children {
			cn, err := convert(ch)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, cn)
		}
		return n, nil
	}
	if in.Root != nil {
		root, err := convert(in.Root)
		if err != nil {
			return nil, err
		}
		c.Root = root
	}
	return c, nil
}

// Find returns the transition with the given document ref or UUID.
func (c *Course) Find(ref string) (*Transition, bool) {
	var found *Transition
	c.Walk(func(t, _ *Transition) {
		if found == nil && (t.Ref == ref || t.ID.String() == ref) {
			found = t
		}
	})
	return found, found != nil
}
