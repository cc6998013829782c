package render

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/coursemap/pkg/widget"
)

type jsonScene struct {
	Title string `json:"title,omitempty"`
	widget.Scene
}

// RenderJSON encodes the scene for web front ends.
func RenderJSON(sc widget.Scene, title string) ([]byte, error) {
	data, err := json.MarshalIndent(jsonScene{Title: title, Scene: sc}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return append(data, '\n'), nil
}
