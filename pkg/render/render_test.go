package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/validation"
	"github.com/matzehuels/coursemap/pkg/view"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// testScene is A..C plus the end marker on a 700px viewport, with B
// selected and C failing validation.
func testScene(t *testing.T) widget.Scene {
	t.Helper()
	w := widget.New(widget.Options{Trash: view.Rect{X: 600, Y: 500, W: 80, H: 80}})
	w.Resize(700, 600)
	w.Load(diagram.Chain(true, "A", "B<x>", "C"))
	b, ok := w.Diagram().FindPayload("B<x>")
	if !ok || !w.Select(b.ID) {
		t.Fatal("could not select B")
	}
	w.SetValidationResults(map[string]validation.Outcome{"C": {Valid: false}})
	return w.Frame()
}

func TestRenderSVG(t *testing.T) {
	sc := testScene(t)
	svg := string(RenderSVG(sc, WithTitle("Go & more"), WithInteraction()))

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		"<title>Go &amp; more</title>",
		`class="node selected"`,
		"B&lt;x&gt;",
		`class="badge"`,
		`class="end"`,
		"<script",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if got := strings.Count(svg, `class="link"`); got != len(sc.Links) {
		t.Errorf("links drawn = %d, want %d", got, len(sc.Links))
	}
	if strings.Contains(svg, `class="trash"`) {
		t.Error("model-space svg should not draw the trash")
	}
}

func TestRenderSVGScreenSpace(t *testing.T) {
	sc := testScene(t)
	svg := string(RenderSVG(sc, WithScreenSpace()))
	if !strings.Contains(svg, `viewBox="0 0 700.0 600.0"`) {
		t.Errorf("screen svg not sized to the viewport:\n%s", svg[:120])
	}
	if !strings.Contains(svg, `class="trash"`) {
		t.Error("screen svg should draw the trash")
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testScene(t), "Course")
	for _, want := range []string{
		"digraph G {",
		`label="Course"`,
		"{ rank=same;",
		"shape=circle",
		"penwidth=3",
		`fillcolor="#fbe9e7"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %q\n%s", want, dot)
		}
	}
	if got := strings.Count(dot, " -> "); got != 3 {
		t.Errorf("edges = %d, want 3", got)
	}
}

func TestRenderMermaid(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{"", "graph TD\n"},
		{DirectionLR, "graph LR\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.want[6:8]), func(t *testing.T) {
			out := RenderMermaid(testScene(t), "Course", tt.dir)
			if !strings.HasPrefix(out, tt.want) {
				t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
			}
			for _, want := range []string{"%% Course", `(("End"))`, "-->", "selected", "failed"} {
				if !strings.Contains(out, want) {
					t.Errorf("mermaid missing %q\n%s", want, out)
				}
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	sc := testScene(t)
	data, err := RenderJSON(sc, "Course")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Title string `json:"title"`
		Nodes []struct {
			Class string `json:"class"`
			Badge bool   `json:"badge"`
		} `json:"nodes"`
		Links []diagram.Link `json:"links"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Course" || len(got.Nodes) != 4 || len(got.Links) != 3 {
		t.Errorf("decoded %+v", got)
	}
}

func TestRenderGraphviz(t *testing.T) {
	svg, err := RenderGraphviz(context.Background(), testScene(t), graphviz.SVG, "Course")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(svg), []byte("<")) || !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("unexpected output:\n%.200s", svg)
	}
}

func TestRenderDispatch(t *testing.T) {
	sc := testScene(t)
	for _, f := range []Format{FormatSVG, FormatDOT, FormatMermaid, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			out, err := Render(context.Background(), sc, f, Options{Title: "Course"})
			if err != nil || len(out) == 0 {
				t.Errorf("Render(%s) = %d bytes, %v", f, len(out), err)
			}
		})
	}
	if _, err := Render(context.Background(), sc, "pdf", Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("pdf err = %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ext  string
	}{
		{"svg", FormatSVG, "svg"},
		{" PNG ", FormatPNG, "png"},
		{"gv", FormatGraphviz, "svg"},
		{"mmd", FormatMermaid, "mmd"},
		{"json", FormatJSON, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want || got.Ext() != tt.ext {
				t.Errorf("ParseFormat(%q) = %q (%s), %v", tt.in, got, got.Ext(), err)
			}
		})
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("pdf err = %v", err)
	}
}
