package course_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/coursemap/pkg/course"
)

func ExampleDecode() {
	doc := `
title: Go basics
steps:
  - {id: intro, type: video, name: Welcome}
  - {id: syntax, type: text, name: Syntax tour}
  - {type: quiz, name: Checkpoint}
  - {type: link, name: Install Go, parent: intro}
`
	c, err := course.Decode(strings.NewReader(doc), course.FormatYAML)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	d := course.Describer{}
	c.Walk(func(t, parent *course.Transition) {
		after := "-"
		if parent != nil {
			after = parent.Name
		}
		fmt.Printf("%s %s: %s (after %s)\n", d.TypeIcon(t), d.TypeDisplayName(t), t.Name, after)
	})
	// Output:
	// ▶ Video: Welcome (after -)
	// ¶ Text: Syntax tour (after Welcome)
	// ? Quiz: Checkpoint (after Syntax tour)
	// ↗ Link: Install Go (after Welcome)
}
