package course

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/coursemap/pkg/validation"
)

var (
	// ErrUnknownFormat is returned for file extensions or format names that
	// have no codec.
	ErrUnknownFormat = errors.New("unknown document format")

	// ErrUnknownParent is returned when a step names a parent that does not
	// appear earlier in the document.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrDuplicateID is returned when two steps share an id.
	ErrDuplicateID = errors.New("duplicate step id")

	// ErrVersion is returned for documents written by a newer format.
	ErrVersion = errors.New("unsupported document version")
)

// Version is the document version written by [Encode].
const Version = 1

// Format is a document encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat resolves a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// document is the on-disk shape. Steps are flat; a step without a parent
// follows the step before it, so a linear course needs no parent fields.
type document struct {
	Version    int                           `toml:"version" yaml:"version" json:"version"`
	Title      string                        `toml:"title" yaml:"title" json:"title"`
	EndMarker  bool                          `toml:"end_marker" yaml:"end_marker" json:"end_marker"`
	Steps      []step                        `toml:"steps" yaml:"steps" json:"steps"`
	Validation map[string]validation.Outcome `toml:"validation,omitempty" yaml:"validation,omitempty" json:"validation,omitempty"`
}

type step struct {
	ID     string   `toml:"id,omitempty" yaml:"id,omitempty" json:"id,omitempty"`
	Type   Type     `toml:"type" yaml:"type" json:"type"`
	Name   string   `toml:"name" yaml:"name" json:"name"`
	Parent string   `toml:"parent,omitempty" yaml:"parent,omitempty" json:"parent,omitempty"`
	Files  []string `toml:"files,omitempty" yaml:"files,omitempty" json:"files,omitempty"`
}

// Decode reads a course document.
func Decode(r io.Reader, f Format) (*Course, error) {
	var doc document
	switch f {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return doc.course()
}

// Encode writes a course document.
func Encode(w io.Writer, f Format, c *Course) error {
	doc := newDocument(c)
	switch f {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Load reads the document at path, picking the format from its extension.
func Load(path string) (*Course, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	c, err := Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path, picking the format from its extension. The file is
// replaced atomically.
func Save(path string, c *Course) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, c); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (doc document) course() (*Course, error) {
	if doc.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	c := &Course{Title: doc.Title, EndMarker: doc.EndMarker, Validation: doc.Validation}

	byRef := make(map[string]*Node, len(doc.Steps))
	var prev *Node
	for i, s := range doc.Steps {
		n := &Node{Transition: &Transition{
			ID:    stepID(doc.Title, i, s.ID),
			Ref:   s.ID,
			Type:  Type(strings.ToLower(strings.TrimSpace(string(s.Type)))),
			Name:  s.Name,
			Files: s.Files,
		}}
		if s.ID != "" {
			if _, dup := byRef[s.ID]; dup {
				return nil, fmt.Errorf("step %d: %w: %q", i+1, ErrDuplicateID, s.ID)
			}
			byRef[s.ID] = n
		}

		switch {
		case s.Parent != "":
			p, ok := byRef[s.Parent]
			if !ok {
				return nil, fmt.Errorf("step %d: %w: %q", i+1, ErrUnknownParent, s.Parent)
			}
			p.Children = append(p.Children, n)
		case prev == nil:
			c.Root = n
		default:
			prev.Children = append(prev.Children, n)
		}
		prev = n
	}
	return c, nil
}

// stepID derives a transition UUID. Ids that are UUIDs are used as is;
// anything else is hashed with the title so re-reading an unchanged
// document yields the same IDs.
func stepID(title string, index int, id string) uuid.UUID {
	if id != "" {
		if u, err := uuid.Parse(id); err == nil {
			return u
		}
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(title+"/"+id))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/#%d", title, index)))
}

func newDocument(c *Course) document {
	doc := document{Version: Version, Title: c.Title, EndMarker: c.EndMarker, Validation: c.Validation}
	var last *Transition
	c.Walk(func(t, parent *Transition) {
		s := step{ID: t.ref(), Type: t.Type, Name: t.Name, Files: t.Files}
		if parent != nil && parent != last {
			s.Parent = parent.ref()
		}
		doc.Steps = append(doc.Steps, s)
		last = t
	})
	return doc
}
