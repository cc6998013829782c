package course

import (
	"strings"
	"unicode"
)

var typeNames = map[Type]string{
	TypeVideo:     "Video",
	TypeText:      "Text",
	TypeQuiz:      "Quiz",
	TypeSlideshow: "Slideshow",
	TypeFile:      "File",
	TypeLink:      "Link",
}

var typeIcons = map[Type]string{
	TypeVideo:     "▶",
	TypeText:      "¶",
	TypeQuiz:      "?",
	TypeSlideshow: "▦",
	TypeFile:      "◫",
	TypeLink:      "↗",
}

// Describer derives display strings for transitions. It satisfies the
// widget's Describer interface; payloads that are not transitions get empty
// strings, which the widget replaces with its placeholder.
type Describer struct{}

// TypeDisplayName returns the human name of the payload's type. Unknown
// types are shown capitalized.
func (Describer) TypeDisplayName(p any) string {
	t, ok := p.(*Transition)
	if !ok || t == nil {
		return ""
	}
	if name, ok := typeNames[t.Type]; ok {
		return name
	}
	return capitalize(string(t.Type))
}

// TransitionName returns the payload's name. Validation results are keyed
// by it.
func (Describer) TransitionName(p any) string {
	t, ok := p.(*Transition)
	if !ok || t == nil {
		return ""
	}
	return strings.TrimSpace(t.Name)
}

// TypeIcon returns a one-character icon for the payload's type.
func (Describer) TypeIcon(p any) string {
	t, ok := p.(*Transition)
	if !ok || t == nil {
		return ""
	}
	if icon, ok := typeIcons[t.Type]; ok {
		return icon
	}
	return "•"
}

// OwnsResources reports whether the payload has stored files.
func (Describer) OwnsResources(p any) bool {
	t, ok := p.(*Transition)
	return ok && t != nil && len(t.Files) > 0
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
