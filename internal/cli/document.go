package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coursemap/pkg/course"
	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/drag"
	cerrors "github.com/matzehuels/coursemap/pkg/errors"
	"github.com/matzehuels/coursemap/pkg/render"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// viewOpts are the viewport flags shared by render, edit and serve.
type viewOpts struct {
	width       float64
	height      float64
	zoom        float64
	noEndMarker bool
	readOnly    bool
}

func (o *viewOpts) register(cmd *cobra.Command, withReadOnly bool) {
	cmd.Flags().Float64Var(&o.width, "width", defaultWidth, "viewport width in pixels")
	cmd.Flags().Float64Var(&o.height, "height", defaultHeight, "viewport height in pixels")
	cmd.Flags().Float64Var(&o.zoom, "zoom", 1, "zoom factor")
	cmd.Flags().BoolVar(&o.noEndMarker, "no-end-marker", false, "hide the end marker")
	if withReadOnly {
		cmd.Flags().BoolVar(&o.readOnly, "read-only", false, "disable editing")
	}
}

func (o viewOpts) validate() error {
	return cerrors.ValidateViewport(o.width, o.height, o.zoom)
}

// loadDocument reads and decodes a course document. It returns the raw
// bytes too, which key the artifact cache.
func loadDocument(path string) (*course.Course, []byte, error) {
	if err := cerrors.ValidateDocumentPath(path); err != nil {
		return nil, nil, err
	}
	f, err := course.FormatFromPath(path)
	if err != nil {
		return nil, nil, classify(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "course document not found")
		}
		return nil, nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "cannot read %s", path)
	}
	c, err := course.Decode(bytes.NewReader(raw), f)
	if err != nil {
		return nil, nil, cerrors.Wrap(cerrors.ErrCodeInvalidDocument, err, "cannot parse %s", filepath.Base(path))
	}
	return c, raw, nil
}

// newWidget builds a widget showing c. extra supplies host-specific
// collaborators such as a confirmer or scheduler.
func newWidget(c *course.Course, o viewOpts, logger *log.Logger, docDir string, extra widget.Options) *widget.Widget {
	opts := extra
	opts.Describer = course.Describer{}
	opts.Logger = logger
	if opts.Cleaner == nil {
		opts.Cleaner = course.FileCleaner{Dir: docDir}
	}

	w := widget.New(opts)
	w.Resize(o.width, o.height)
	if o.zoom > 0 {
		w.SetZoom(o.zoom)
	}
	in := c.Input()
	if o.noEndMarker {
		in.EndMarker = false
	}
	w.Load(in)
	w.SetValidationResults(c.Validation)
	w.SetReadOnly(o.readOnly)
	return w
}

// snapshot rebuilds a course from the widget's current tree, keeping the
// document-level fields of orig.
func snapshot(orig *course.Course, w *widget.Widget) (*course.Course, error) {
	c, err := course.FromInput(orig.Title, w.Export())
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "cannot export diagram")
	}
	c.EndMarker = orig.EndMarker
	c.Validation = orig.Validation
	return c, nil
}

// classify attaches an error code to the library sentinels hosts report.
func classify(err error) error {
	if err == nil || cerrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, diagram.ErrUnknownNode):
		return cerrors.Wrap(cerrors.ErrCodeNodeNotFound, err, "no such node")
	case errors.Is(err, drag.ErrReadOnly):
		return cerrors.Wrap(cerrors.ErrCodeReadOnly, err, "the diagram is read-only")
	case errors.Is(err, drag.ErrBusy):
		return cerrors.Wrap(cerrors.ErrCodeConflict, err, "another edit is in progress")
	case errors.Is(err, diagram.ErrCycle), errors.Is(err, diagram.ErrEndMarker),
		errors.Is(err, diagram.ErrRootPlacement), errors.Is(err, drag.ErrRejected),
		errors.Is(err, drag.ErrCancelled):
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "edit refused")
	case errors.Is(err, course.ErrUnknownFormat), errors.Is(err, render.ErrUnknownFormat):
		return cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "unsupported format")
	case errors.Is(err, course.ErrUnknownParent), errors.Is(err, course.ErrDuplicateID),
		errors.Is(err, course.ErrVersion):
		return cerrors.Wrap(cerrors.ErrCodeInvalidDocument, err, "invalid course document")
	}
	return cerrors.Wrap(cerrors.ErrCodeInternal, err, "unexpected error")
}

// describe returns a one-line label for a node, e.g. "Video: Intro".
func describe(w *widget.Widget, id diagram.NodeID) string {
	n, ok := w.Diagram().Node(id)
	if !ok {
		return ""
	}
	if n.IsEndMarker() {
		return widget.EndMarkerLabel
	}
	d := course.Describer{}
	return fmt.Sprintf("%s: %s", d.TypeDisplayName(n.Payload), d.TransitionName(n.Payload))
}
