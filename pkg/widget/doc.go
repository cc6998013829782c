// Package widget is the composition root of the diagram editor.
//
// A [Widget] owns a tree model ([diagram.Diagram]), runs the row-wrap
// layout and the reconciler after every change, routes pointer input
// through the drag state machine and keeps the selection and the
// validation overlay. Hosts talk to nothing else.
//
// # Driving a widget
//
//	w := widget.New(widget.Options{Describer: course.Describer{}})
//	w.Resize(1024, 768)
//	w.Load(c.Input())
//	w.OnStructuralChange(func(event.StructuralChange) { save(w.Export()) })
//
//	w.PointerDown(x, y)
//	w.PointerMove(x2, y2)
//	out := w.PointerUp(x2, y2)
//
//	scene := w.Frame() // hand to a renderer
//
// Everything runs on the caller's goroutine. Hosts with background input
// must serialize calls; auto-scroll ticks come through the injected
// [drag.Scheduler] so they can be fed from the host's own event loop.
//
// # Errors
//
// Model errors never escape pointer handling: an invalid drop resolves to
// [drag.OutcomeNone] and the node snaps back. Collaborator failures, such as
// a resource cleanup that failed before a delete, are published on
// [Widget.OnError] and the delete is not applied.
package widget
