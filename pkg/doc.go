// Package pkg provides the core libraries for Coursemap course flow diagrams.
//
// # Overview
//
// Coursemap draws a course, a tree of steps such as videos, texts and
// quizzes, as a row-wrapped diagram: siblings flow left to right and wrap
// into new rows when the viewport is full, branches get their own lanes. The
// diagram is editable by dragging steps onto each other or onto a trash
// target.
//
// The typical data flow:
//
//	Course document (TOML, YAML, JSON)
//	         ↓
//	    [course] package (decode, describe steps)
//	         ↓
//	    [widget] package (tree model, layout, drag, selection, validation)
//	         ↓
//	    [render] package (SVG, DOT, Graphviz, Mermaid, JSON)
//
// # Quick Start
//
// Load a document and render it:
//
//	c, _ := course.Load("course.toml")
//
//	w := widget.New(widget.Options{Describer: course.Describer{}})
//	w.Resize(1200, 800)
//	w.Load(c.Input())
//	w.SetValidationResults(c.Validation)
//
//	svg := render.RenderSVG(w.Frame(), render.WithTitle(c.Title))
//
// Hosts feed pointer input and listen for changes:
//
//	w.OnStructuralChange(func(event.StructuralChange) {
//	    updated, _ := course.FromInput(c.Title, w.Export())
//	    _ = course.Save("course.toml", updated)
//	})
//	w.PointerDown(x, y)
//	w.PointerMove(x2, y2)
//	out := w.PointerUp(x2, y2)
//
// # Main Packages
//
// ## Model
//
// [diagram] - The tree of steps: stable node IDs, an optional end marker that
// always closes the main chain, and insert, move and delete operations that
// keep the tree well formed.
//
// [layout] - Row-wrapped layout. Row capacity follows from the viewport width
// and zoom; branches are placed in lanes below their parent.
//
// [reconcile] - Enter, update and exit sets between two layouts, so hosts can
// animate nodes and links from their previous positions.
//
// ## Interaction
//
// [view] - Zoom, pan and the screen/model coordinate transform.
//
// [drag] - The drag state machine: movement threshold, drop targets,
// auto-scroll near the viewport edges, and the confirm and cleanup flow for
// deletes.
//
// [selection] - Single selection and the CSS classes derived from it.
//
// [validation] - Error badges keyed by step name, surviving renames.
//
// [event] - Typed synchronous publish/subscribe.
//
// [widget] - The composition root hosts talk to.
//
// ## Hosts and Output
//
// [course] - Course documents and the display strings for steps.
//
// [render] - Output formats for a widget frame.
//
// [cache] - Artifact caches (null, file, Redis) keyed by document hash.
//
// [errors] - Coded errors for command-line and HTTP hosts.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/widget/...     # Specific package
//	go test -run Example ./...   # Examples only
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/diagram
// [layout]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/layout
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/reconcile
// [view]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/view
// [drag]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/drag
// [selection]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/selection
// [validation]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/validation
// [event]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/event
// [widget]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/widget
// [course]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/course
// [render]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/coursemap/pkg/errors
package pkg
