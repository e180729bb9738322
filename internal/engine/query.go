package engine

import (
	"strings"

	"github.com/dgallion1/taskdoc/internal/doctree"
	"github.com/dgallion1/taskdoc/internal/linkpath"
	"github.com/dgallion1/taskdoc/internal/marker"
	"github.com/dgallion1/taskdoc/internal/parser"
	"github.com/dgallion1/taskdoc/internal/taskid"
)

// ListTasks indexes text and returns its task nodes in document order.
func ListTasks(text string) ([]doctree.Node, error) {
	tree, err := doctree.Index(doctree.Parse(text))
	if err != nil {
		return nil, err
	}
	return tree.Nodes, nil
}

// TaskDetail is one task with its own body text and direct children.
type TaskDetail struct {
	doctree.Node `yaml:",inline"`
	Heading      string   `json:"heading" yaml:"heading"`
	Body         string   `json:"body" yaml:"body"`
	ChildIDs     []string `json:"child_ids" yaml:"child_ids"`
}

// Task returns the task with id, its body lines (descendants excluded) and
// the ids of its direct children.
func Task(text, id string) (TaskDetail, error) {
	tree, err := doctree.Index(doctree.Parse(text))
	if err != nil {
		return TaskDetail{}, err
	}
	idx, err := tree.Find(id)
	if err != nil {
		return TaskDetail{}, err
	}
	n := tree.Nodes[idx]
	children := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, tree.Nodes[c].ID)
	}
	d := TaskDetail{
		Node:     n,
		Heading:  tree.Doc.Lines[n.HeadingLine],
		ChildIDs: children,
	}
	if n.HasBody() {
		d.Body = strings.Join(doctree.SplitBody(strings.Join(tree.Body(idx), "\n")), "\n")
	}
	return d, nil
}

// TaskBody returns only the task's own body text.
func TaskBody(text, id string) (string, error) {
	d, err := Task(text, id)
	if err != nil {
		return "", err
	}
	return d.Body, nil
}

// IsCompleted reports whether the task's heading carries the completed token.
func IsCompleted(text, id string) (bool, error) {
	d, err := Task(text, id)
	if err != nil {
		return false, err
	}
	return marker.IsCompleted(d.Heading), nil
}

// IsInProgress reports whether the task's heading carries the in-progress token.
func IsInProgress(text, id string) (bool, error) {
	d, err := Task(text, id)
	if err != nil {
		return false, err
	}
	return marker.IsInProgress(d.Heading), nil
}

// NextMainID allocates the next top-level id for the document.
func NextMainID(text, prefix string) (string, error) {
	tree, err := doctree.Index(doctree.Parse(text))
	if err != nil {
		return "", err
	}
	return taskid.NextMainID(tree.IDs(), prefix)
}

// NextSubID allocates the next direct-child id under parent. The parent has
// to exist in the document.
func NextSubID(text, parent string) (string, error) {
	tree, err := doctree.Index(doctree.Parse(text))
	if err != nil {
		return "", err
	}
	if _, err := tree.Find(parent); err != nil {
		return "", err
	}
	return taskid.NextSubID(tree.IDs(), parent)
}

// ResolvedLink is a link found in a task body together with its normalized paths.
type ResolvedLink struct {
	parser.Link `yaml:",inline"`
	External    bool   `json:"external" yaml:"external"`
	Absolute    string `json:"absolute,omitempty" yaml:"absolute,omitempty"`
	Relative    string `json:"relative,omitempty" yaml:"relative,omitempty"`
}

// TaskLinks lists the links in the task's own body. Local targets are
// resolved against docPath and, when root is set, made relative to root.
func TaskLinks(text, id, docPath, root string) ([]ResolvedLink, error) {
	d, err := Task(text, id)
	if err != nil {
		return nil, err
	}
	var out []ResolvedLink
	for _, l := range parser.Links(d.Body) {
		rl := ResolvedLink{Link: l}
		if linkpath.IsExternal(l.Target) {
			rl.External = true
		} else {
			target, _, _ := strings.Cut(l.Target, "#")
			rl.Absolute = linkpath.ResolveAbsolute(target, docPath)
			if root != "" {
				rl.Relative = linkpath.ResolveRelative(target, docPath, root)
			}
		}
		out = append(out, rl)
	}
	return out, nil
}
