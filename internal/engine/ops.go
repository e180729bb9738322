// Package engine applies task edits to markdown text.
//
// Every entry point is a pure function of its inputs: it parses the text it
// is given, indexes it, and returns a complete new text or an error. No state
// is kept between calls and nothing is written anywhere.
package engine

import (
	"errors"

	"github.com/dgallion1/taskdoc/internal/doctree"
	"github.com/dgallion1/taskdoc/internal/marker"
	"github.com/dgallion1/taskdoc/internal/taskid"
)

// Kind names an edit.
type Kind string

const (
	OpDelete        Kind = "delete"
	OpReplaceBody   Kind = "replace_body"
	OpInsertSubtask Kind = "insert_subtask"
	OpInsertMain    Kind = "insert_main"
	OpSetStatus     Kind = "set_status"
)

// ErrUnknownOperation is returned for an Operation whose Kind is not recognized.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation describes one edit. ID is the target task, or the parent for
// OpInsertSubtask. NewID may be left empty on inserts to allocate the next
// free identifier.
type Operation struct {
	Kind   Kind           `json:"kind"`
	ID     string         `json:"id,omitempty"`
	NewID  string         `json:"new_id,omitempty"`
	Title  string         `json:"title,omitempty"`
	Body   string         `json:"body,omitempty"`
	Status doctree.Status `json:"status,omitempty"`
}

// Options carries the settings that shape generated text.
type Options struct {
	Prefix        string        // letter for new top-level ids
	TopLevelDepth int           // heading depth of the first task in an empty document
	Placeholder   string        // body written under new tasks when none is given
	Markers       marker.Policy // status token interaction
}

// DefaultPlaceholder is written under newly inserted tasks.
const DefaultPlaceholder = "_No description yet._"

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Prefix:        taskid.DefaultPrefix,
		TopLevelDepth: 2,
		Placeholder:   DefaultPlaceholder,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Prefix == "" {
		o.Prefix = def.Prefix
	}
	if o.TopLevelDepth <= 0 || o.TopLevelDepth > 6 {
		o.TopLevelDepth = def.TopLevelDepth
	}
	if o.Placeholder == "" {
		o.Placeholder = def.Placeholder
	}
	return o
}

// Result is the outcome of a successful edit.
type Result struct {
	Text string `json:"text"`
	ID   string `json:"id"` // the task created or edited
}
