// Package validation maps externally computed validation results onto
// per-node error badges.
//
// Results are keyed by a node's display name. The index is replaced
// wholesale by [Overlay.SetResults] and only ever edited in place by
// [Overlay.Rename], which follows a payload rename so the badge survives it.
package validation

import "maps"

// Outcome is the result of validating one course object.
type Outcome struct {
	Valid    bool     `json:"valid" yaml:"valid" toml:"valid"`
	Messages []string `json:"messages,omitempty" yaml:"messages,omitempty" toml:"messages,omitempty"`
}

// Failed reports whether the outcome should show an error badge.
func (o Outcome) Failed() bool { return !o.Valid }

// Index maps a display name to whether it has an error.
type Index map[string]bool

// Overlay holds the current validation index and the detail behind it.
// The zero value is an empty overlay.
type Overlay struct {
	index  Index
	detail map[string]Outcome
}

// SetResults replaces the index with results. It never merges.
func (o *Overlay) SetResults(results map[string]Outcome) {
	o.index = make(Index, len(results))
	o.detail = make(map[string]Outcome, len(results))
	for name, r := range results {
		o.index[name] = r.Failed()
		o.detail[name] = r
	}
}

// HasError reports whether name has a failed outcome.
func (o *Overlay) HasError(name string) bool { return o.index[name] }

// Detail returns the outcome recorded for name, for error dialogs.
func (o *Overlay) Detail(name string) (Outcome, bool) {
	r, ok := o.detail[name]
	return r, ok
}

// Rename moves the entry for oldName to newName, overwriting any entry
// already at newName. Renaming an unknown name is a no-op.
// It reports whether an entry moved.
func (o *Overlay) Rename(oldName, newName string) bool {
	if oldName == newName {
		return false
	}
	flag, ok := o.index[oldName]
	if !ok {
		return false
	}
	delete(o.index, oldName)
	o.index[newName] = flag
	if r, ok := o.detail[oldName]; ok {
		delete(o.detail, oldName)
		o.detail[newName] = r
	}
	return true
}

// Index returns a copy of the current index.
func (o *Overlay) Index() Index { return maps.Clone(o.index) }

// Len returns the number of names with results.
func (o *Overlay) Len() int { return len(o.index) }
