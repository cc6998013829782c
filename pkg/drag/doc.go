// Package drag implements the pointer state machine that moves, inserts and
// deletes diagram nodes.
//
// # States
//
// A [Controller] starts Idle. A press on a node moves it to Considering; it
// becomes Dragging only once the pointer travels more than [Threshold]
// pixels on either axis, so a click is never misread as a drag. External
// payloads (e.g. from a palette) skip straight to Dragging via
// [Controller.BeginExternal].
//
// While Dragging the controller owns the dragged node's position: it follows
// the pointer and the layout must skip it ([Controller.Pinned]). Near the top
// or bottom edge of the viewport a [Scheduler] job scrolls the view every
// [ScrollInterval] and keeps the node under the pointer.
//
// # Resolution
//
// Releasing the pointer resolves the drag into exactly one [Outcome]:
//
//   - over the trash, the controller enters Resolving and asks the
//     [Confirmer]; a confirmed delete runs the [Cleaner] first when the
//     payload owns resources, and the node is only removed once cleanup
//     succeeds
//   - over another node, the [DropResolver] picks the placement; drops onto
//     the dragged node's own subtree are rejected before anything changes
//   - anywhere else, the node snaps back
//
// Every exit path stops the auto-scroll job and fires [Hooks].Release in the
// same call, so the layout takes over without an intermediate frame.
package drag
