// Package event is a small typed publish/subscribe surface.
//
// Each event type gets its own [Topic]. Delivery is synchronous and in
// subscription order, matching the single-threaded event loop the diagram
// runs on: when Publish returns, every listener has run.
package event

// Topic delivers values of type T to its subscribers.
// The zero value is ready to use. Topic is not safe for concurrent use.
type Topic[T any] struct {
	subs   []*subscription[T]
	nextID int
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.nextID++
	s := &subscription[T]{id: t.nextID, fn: fn}
	t.subs = append(t.subs, s)
	return func() {
		for i, x := range t.subs {
			if x == s {
				// Copy so an in-flight Publish keeps iterating its own slice.
				subs := make([]*subscription[T], 0, len(t.subs)-1)
				subs = append(subs, t.subs[:i]...)
				t.subs = append(subs, t.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber with v.
func (t *Topic[T]) Publish(v T) {
	for _, s := range t.subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int { return len(t.subs) }

// StructuralChange is published after the tree changed shape (move, insert,
// delete). It carries nothing: listeners persist the whole tree.
type StructuralChange struct{}

// SelectionChange carries the newly selected payload, or nil.
type SelectionChange struct {
	Payload any
}

// ContextMenu asks the host to open a context menu for a node at a screen
// position.
type ContextMenu struct {
	Payload any
	X, Y    float64
}

// DragStarted is published when a pointer drag crosses the movement
// threshold or an external drag begins.
type DragStarted struct{}

// DragEnded is published when a drag resolves, whatever the outcome.
type DragEnded struct{}

// Failure reports a collaborator error the diagram refused to commit, e.g.
// a failed resource cleanup before a delete.
type Failure struct {
	Payload any
	Err     error
}
