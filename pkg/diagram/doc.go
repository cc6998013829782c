// Package diagram provides the tree model behind the course diagram editor.
//
// A [Diagram] is a rooted, ordered tree of [Node] values. Transition nodes
// carry an opaque payload owned by the embedding application; an optional
// end marker node terminates the main chain. The package has no rendering
// knowledge: positions stored on nodes are written by package layout and
// read by package reconcile.
//
// # Structure
//
// The tree is only ever built top-down ([Build], [Diagram.Insert]) and
// rearranged by operations that check for cycles before mutating
// ([Diagram.Move]), so no runtime cycle detection is needed. Every node
// except the root has exactly one parent, and links are derived from that
// structure:
//
//	d := diagram.Build(diagram.Chain(true, intro, quiz, outro))
//	for _, l := range d.Links() {
//	    fmt.Println(l.Source, "->", l.Target)
//	}
//
// # Deletion
//
// [Diagram.Delete] removes a single node and splices its children into the
// parent at the deleted node's position, so nothing is orphaned.
// [Diagram.DeleteBranch] removes a whole subtree.
//
// # End marker
//
// When enabled, the diagram keeps exactly one end marker as the last leaf of
// the main chain (the chain reached by following first children from the
// root). It is re-attached after every structural change and cannot be
// moved, deleted or given children.
package diagram
