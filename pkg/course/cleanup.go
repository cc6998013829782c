package course

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileCleaner removes the files a transition owns before its node is
// deleted. Relative paths are resolved against Dir, normally the directory
// of the course document. Files that are already gone are not an error.
type FileCleaner struct {
	Dir string
}

// Cleanup implements the widget's cleaner. It calls done exactly once.
func (c FileCleaner) Cleanup(payload any, done func(error)) {
	t, ok := payload.(*Transition)
	if !ok || t == nil {
		done(nil)
		return
	}
	var errs []error
	for _, f := range t.Files {
		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Dir, path)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", f, err))
		}
	}
	done(errors.Join(errs...))
}
