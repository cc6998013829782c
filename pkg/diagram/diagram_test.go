package diagram

import (
	"errors"
	"slices"
	"testing"
)

func ids(nodes []*Node) []NodeID {
	out := make([]NodeID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func payloads(nodes []*Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n.Payload
	}
	return out
}

// mustFind returns the node carrying payload p.
func mustFind(t *testing.T, d *Diagram, p any) *Node {
	t.Helper()
	n, ok := d.FindPayload(p)
	if !ok {
		t.Fatalf("payload %v not found", p)
	}
	return n
}

// branchy builds a -> b -> {c, d}, c -> e.
func branchy(end bool) *Diagram {
	return Build(Input{
		EndMarker: end,
		Root: &Item{Payload: "a", Children: []*Item{
			{Payload: "b", Children: []*Item{
				{Payload: "c", Children: []*Item{{Payload: "e"}}},
				{Payload: "d"},
			}},
		}},
	})
}

func checkIndex(t *testing.T, d *Diagram) {
	t.Helper()
	nodes := d.Nodes()
	if len(nodes) != d.Len() {
		t.Fatalf("traversal has %d nodes, index has %d", len(nodes), d.Len())
	}
	for _, n := range nodes {
		got, ok := d.Node(n.ID)
		if !ok || got != n {
			t.Fatalf("node %d not indexed with the same identity", n.ID)
		}
		for _, c := range n.Children {
			if c.Parent() != n {
				t.Fatalf("child %d has parent %v, want %d", c.ID, c.Parent(), n.ID)
			}
		}
	}
}

func TestBuildAssignsPreorderIDs(t *testing.T) {
	d := branchy(false)
	checkIndex(t, d)

	if got, want := ids(d.Nodes()), []NodeID{1, 2, 3, 4, 5}; !slices.Equal(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if got, want := payloads(d.Nodes()), []any{"a", "b", "c", "e", "d"}; !slices.Equal(got, want) {
		t.Errorf("payloads = %v, want %v", got, want)
	}
	if n := mustFind(t, d, "e"); n.Depth != 3 {
		t.Errorf("depth(e) = %d, want 3", n.Depth)
	}
}

func TestBuildEmpty(t *testing.T) {
	d := Build(Input{EndMarker: true})
	if d.Root() != nil || d.Len() != 0 {
		t.Fatalf("empty input should give empty diagram, got %d nodes", d.Len())
	}
	if _, ok := d.EndMarker(); ok {
		t.Error("empty diagram should not carry an end marker")
	}
}

func TestEndMarkerFollowsMainChain(t *testing.T) {
	d := branchy(true)
	checkIndex(t, d)

	end, ok := d.EndMarker()
	if !ok {
		t.Fatal("end marker missing")
	}
	if got := end.Parent().Payload; got != "e" {
		t.Errorf("end marker parent = %v, want e", got)
	}

	// Appending after e must keep the marker last.
	n, err := d.Insert("f", mustFind(t, d, "e").ID)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if end.Parent() != n {
		t.Errorf("end marker parent = %v, want f", end.Parent().Payload)
	}
	checkIndex(t, d)
}

func TestInsertOnEndMarkerLandsBeforeIt(t *testing.T) {
	d := Build(Chain(true, "a", "b"))
	end, _ := d.EndMarker()

	n, err := d.Insert("c", end.ID)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n.Parent().Payload != "b" {
		t.Errorf("parent = %v, want b", n.Parent().Payload)
	}
	if end.Parent() != n {
		t.Error("end marker should follow the inserted node")
	}
	if end.ID != 3 {
		t.Errorf("end marker id changed to %d", end.ID)
	}
}

func TestInsertNewRoot(t *testing.T) {
	d := Build(Chain(false, "b"))
	n, err := d.Insert("a", None)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if d.Root() != n || len(n.Children) != 1 || n.Children[0].Payload != "b" {
		t.Fatal("new root should adopt the old root")
	}
	if _, err := d.Insert("x", 99); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Insert under unknown parent: err = %v", err)
	}
}

func TestDeleteRelinksChildren(t *testing.T) {
	d := Build(Input{Root: &Item{Payload: "p", Children: []*Item{
		{Payload: "x"},
		{Payload: "n", Children: []*Item{{Payload: "c1"}, {Payload: "c2"}}},
		{Payload: "y"},
	}}})
	n := mustFind(t, d, "n")

	if _, err := d.Delete(n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	checkIndex(t, d)

	if got, want := payloads(d.Root().Children), []any{"x", "c1", "c2", "y"}; !slices.Equal(got, want) {
		t.Errorf("p.children = %v, want %v", got, want)
	}
	if _, ok := d.Node(n.ID); ok {
		t.Error("deleted node still indexed")
	}
}

func TestDeleteRootPromotesFirstChild(t *testing.T) {
	d := Build(Input{EndMarker: true, Root: &Item{Payload: "r", Children: []*Item{
		{Payload: "a"}, {Payload: "b"},
	}}})
	if _, err := d.Delete(d.Root().ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	checkIndex(t, d)

	if d.Root().Payload != "a" {
		t.Fatalf("root = %v, want a", d.Root().Payload)
	}
	kids := d.Root().Children
	if len(kids) != 1 || kids[0].Payload != "b" {
		t.Fatalf("unexpected children after promotion: %v", payloads(kids))
	}
	if end, _ := d.EndMarker(); end.Parent() != kids[0] {
		t.Error("end marker should follow the new main chain")
	}
	if d.Root().Depth != 0 || kids[0].Depth != 1 {
		t.Error("depths not refreshed")
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	d := Build(Chain(false, "a", "b", "c"))
	b := mustFind(t, d, "b")
	if err := d.SetSelected(b.ID); err != nil {
		t.Fatal(err)
	}

	cleared, err := d.Delete(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !cleared || d.Selected() != None {
		t.Errorf("cleared = %v, selected = %d", cleared, d.Selected())
	}
}

func TestDeleteBranchClearsNestedSelection(t *testing.T) {
	d := branchy(true)
	e := mustFind(t, d, "e")
	_ = d.SetSelected(e.ID)

	removed, cleared, err := d.DeleteBranch(mustFind(t, d, "c").ID)
	if err != nil {
		t.Fatal(err)
	}
	checkIndex(t, d)

	if len(removed) != 2 {
		t.Errorf("removed %v, want c and e", removed)
	}
	if !cleared || d.Selected() != None {
		t.Error("selection inside a deleted branch must be cleared")
	}
	end, ok := d.EndMarker()
	if !ok || end.Parent().Payload != "d" {
		t.Error("end marker should move to the remaining chain")
	}
}

func TestEndMarkerIsNotEditable(t *testing.T) {
	d := Build(Chain(true, "a", "b"))
	end, _ := d.EndMarker()

	if _, err := d.Delete(end.ID); !errors.Is(err, ErrEndMarker) {
		t.Errorf("Delete(end) err = %v", err)
	}
	if err := d.Move(end.ID, d.Root().ID, PlaceAsChild); !errors.Is(err, ErrEndMarker) {
		t.Errorf("Move(end) err = %v", err)
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	d := branchy(true)
	before := d.Links()

	b := mustFind(t, d, "b")
	for _, target := range d.Descendants(b.ID) {
		for _, place := range []Placement{PlaceAsChild, PlaceBefore, PlaceAfter} {
			if err := d.Move(b.ID, target, place); !errors.Is(err, ErrCycle) {
				t.Errorf("Move(b, %d, %d) err = %v, want ErrCycle", target, place, err)
			}
		}
	}
	if !slices.Equal(before, d.Links()) {
		t.Error("tree changed after rejected moves")
	}
}

func TestMovePlacements(t *testing.T) {
	tests := []struct {
		name  string
		place Placement
		want  []any // children of b after moving e next to / under d
	}{
		{"AsChild", PlaceAsChild, []any{"c", "d"}},
		{"Before", PlaceBefore, []any{"c", "e", "d"}},
		{"After", PlaceAfter, []any{"c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := branchy(false)
			e, dd := mustFind(t, d, "e"), mustFind(t, d, "d")

			if err := d.Move(e.ID, dd.ID, tt.place); err != nil {
				t.Fatalf("Move: %v", err)
			}
			checkIndex(t, d)

			if got := payloads(mustFind(t, d, "b").Children); !slices.Equal(got, tt.want) {
				t.Errorf("b.children = %v, want %v", got, tt.want)
			}
			if len(mustFind(t, d, "c").Children) != 0 {
				t.Error("e should have left c")
			}
		})
	}
}

func TestMoveSiblingOfRoot(t *testing.T) {
	d := Build(Chain(false, "a", "b", "c"))
	c := mustFind(t, d, "c")
	if err := d.Move(c.ID, d.Root().ID, PlaceBefore); !errors.Is(err, ErrRootPlacement) {
		t.Errorf("err = %v, want ErrRootPlacement", err)
	}
}

func TestMoveOntoEndMarkerAppends(t *testing.T) {
	d := Build(Input{EndMarker: true, Root: &Item{Payload: "a", Children: []*Item{
		{Payload: "b"}, {Payload: "x"},
	}}})
	end, _ := d.EndMarker()
	x := mustFind(t, d, "x")

	if err := d.Move(x.ID, end.ID, PlaceBefore); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if x.Parent().Payload != "b" {
		t.Errorf("x parent = %v, want b", x.Parent().Payload)
	}
	if end.Parent() != x {
		t.Error("end marker should follow x")
	}
}

func TestExportRoundTrip(t *testing.T) {
	d := branchy(true)
	again := Build(d.Export())
	if !slices.Equal(d.Links(), again.Links()) {
		t.Errorf("links differ: %v vs %v", d.Links(), again.Links())
	}
}

type keyed string

func (k keyed) PayloadKey() string { return string(k) }

type boxed struct{ v any }

func TestSamePayload(t *testing.T) {
	a, b := &struct{ n int }{1}, &struct{ n int }{1}
	tests := []struct {
		name string
		x, y any
		want bool
	}{
		{"same pointer", a, a, true},
		{"different pointers", a, b, false},
		{"keyed equal", keyed("k"), keyed("k"), true},
		{"keyed differ", keyed("k"), keyed("j"), false},
		{"nil", nil, a, false},
		{"non comparable", []int{1}, []int{1}, false},
		{"slice behind interface field", boxed{[]int{1}}, boxed{[]int{1}}, false},
		{"comparable behind interface field", boxed{7}, boxed{7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SamePayload(tt.x, tt.y); got != tt.want {
				t.Errorf("SamePayload = %v, want %v", got, tt.want)
			}
		})
	}
}
