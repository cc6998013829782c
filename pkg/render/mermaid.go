package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// Direction is a Mermaid flowchart direction.
type Direction string

const (
	DirectionTD Direction = "TD" // top-down (default)
	DirectionLR Direction = "LR"
)

// RenderMermaid renders the scene as a Mermaid flowchart.
func RenderMermaid(sc widget.Scene, title string, dir Direction) string {
	if dir == "" {
		dir = DirectionTD
	}
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", dir)
	if title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", title)
	}

	var selected, failed []string
	for _, g := range sc.Glyphs {
		id := nodeName(g)
		text := mermaidLabel(g)
		if g.Kind == diagram.KindEndMarker.String() {
			fmt.Fprintf(&b, "    %s((\"%s\"))\n", id, text)
			continue
		}
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, text)
		if strings.Contains(g.Class, "selected") {
			selected = append(selected, id)
		}
		if g.Badge {
			failed = append(failed, id)
		}
	}
	for _, l := range sc.Links {
		fmt.Fprintf(&b, "    n%d --> n%d\n", l.Source, l.Target)
	}

	if len(selected) > 0 || len(failed) > 0 {
		b.WriteString("\n")
		b.WriteString("    classDef selected stroke:#1a73e8,stroke-width:3px\n")
		b.WriteString("    classDef failed fill:#fbe9e7,stroke:#c0392b\n")
	}
	if len(selected) > 0 {
		fmt.Fprintf(&b, "    class %s selected\n", strings.Join(selected, ","))
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "    class %s failed\n", strings.Join(failed, ","))
	}
	return b.String()
}

// mermaidLabel escapes a label for a quoted Mermaid node. Line breaks
// become <br/>.
func mermaidLabel(g widget.Glyph) string {
	s := strings.ReplaceAll(label(g), `"`, "#quot;")
	return strings.ReplaceAll(s, "\n", "<br/>")
}
