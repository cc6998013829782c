package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxNameLength bounds transition names accepted over the preview server.
const MaxNameLength = 256

// ValidateName checks a transition display name received from a client.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains control characters")
		}
	}
	return nil
}

// ValidateDocumentPath checks a course document path given on the command
// line: it must name a .toml, .yaml, .yml or .json file.
func ValidateDocumentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "path contains a null byte")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".yaml", ".yml", ".json":
		return nil
	case "":
		return New(ErrCodeInvalidPath, "%s: missing file extension", path)
	}
	return New(ErrCodeInvalidFormat, "%s: unsupported document type %q", path, filepath.Ext(path))
}

// ValidateViewport checks viewport dimensions and zoom. Zero sizes are
// allowed and mean "use the default".
func ValidateViewport(width, height, zoom float64) error {
	for _, v := range []float64{width, height, zoom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidViewport, "viewport values must be finite")
		}
	}
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidViewport, "viewport size cannot be negative (%gx%g)", width, height)
	}
	if zoom < 0 {
		return New(ErrCodeInvalidViewport, "zoom cannot be negative (%g)", zoom)
	}
	return nil
}
