package validation

import "testing"

func TestRenameKeepsBadge(t *testing.T) {
	var o Overlay
	o.SetResults(map[string]Outcome{"Intro": {Valid: false, Messages: []string{"missing video"}}})
	if !o.HasError("Intro") {
		t.Fatal("Intro should have an error")
	}

	if !o.Rename("Intro", "Introduction") {
		t.Fatal("Rename reported no move")
	}
	if !o.HasError("Introduction") {
		t.Error("badge lost after rename")
	}
	if o.HasError("Intro") {
		t.Error("old name still flagged")
	}
	if r, ok := o.Detail("Introduction"); !ok || len(r.Messages) != 1 {
		t.Errorf("detail not moved: %+v", r)
	}
}

func TestRename(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		moved    bool
		want     Index
	}{
		{"missing key", "Nope", "Other", false, Index{"A": true, "B": false}},
		{"same name", "A", "A", false, Index{"A": true, "B": false}},
		{"overwrite", "A", "B", true, Index{"B": true}},
		{"valid entry", "B", "C", true, Index{"A": true, "C": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Overlay
			o.SetResults(map[string]Outcome{"A": {Valid: false}, "B": {Valid: true}})
			if got := o.Rename(tt.old, tt.new); got != tt.moved {
				t.Errorf("moved = %v, want %v", got, tt.moved)
			}
			got := o.Index()
			if len(got) != len(tt.want) {
				t.Fatalf("index = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if g, ok := got[k]; !ok || g != v {
					t.Errorf("index[%q] = %v, want %v", k, g, v)
				}
			}
		})
	}
}

func TestSetResultsReplaces(t *testing.T) {
	var o Overlay
	o.SetResults(map[string]Outcome{"A": {Valid: false}})
	o.SetResults(map[string]Outcome{"B": {Valid: false}})
	if o.HasError("A") {
		t.Error("SetResults merged instead of replacing")
	}
	if !o.HasError("B") || o.Len() != 1 {
		t.Errorf("index = %v", o.Index())
	}
}

func TestZeroOverlay(t *testing.T) {
	var o Overlay
	if o.HasError("x") || o.Rename("x", "y") {
		t.Error("zero overlay should be empty")
	}
}
