package doctree

import (
	"fmt"
	"strings"

	"github.com/dgallion1/taskdoc/internal/marker"
	"github.com/dgallion1/taskdoc/internal/parser"
	"github.com/dgallion1/taskdoc/internal/taskid"
)

// Tree is the indexed view of one document snapshot.
type Tree struct {
	Doc   Document
	Nodes []Node

	lines []lineInfo
	byID  map[string]int
}

// Index scans doc and returns its task nodes in document order. A heading is
// a task only when the first word of its text is an identifier: "## R1 Setup"
// is task R1, while "## Task R1 intro" is a plain heading that still ends the
// bodies and subtrees before it. Irregular depth jumps are accepted as
// written; only duplicate identifiers fail.
func Index(doc Document) (*Tree, error) {
	t := &Tree{
		Doc:   doc,
		lines: scan(doc.Lines),
		byID:  make(map[string]int),
	}

	var stack []int
	for i, li := range t.lines {
		if li.depth == 0 {
			continue
		}
		id, _, end, ok := taskid.Leading(li.text)
		if !ok {
			continue
		}
		key := taskid.Key(id)
		if prev, dup := t.byID[key]; dup {
			return nil, taskid.Duplicate(id, fmt.Sprintf("headings on lines %d and %d", t.Nodes[prev].HeadingLine+1, i+1))
		}

		for len(stack) > 0 && t.Nodes[stack[len(stack)-1]].Depth >= li.depth {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}

		subtreeEnd := t.SubtreeEnd(i, li.depth)
		n := Node{
			ID:          id,
			Depth:       li.depth,
			Status:      statusOf(doc.Lines[i]),
			Title:       titleOf(li.text, end),
			HeadingLine: i,
			SubtreeEnd:  subtreeEnd,
			BodyEnd:     t.BodyEnd(i, subtreeEnd),
			Parent:      parent,
		}
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, n)
		t.byID[key] = idx
		if parent >= 0 {
			t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
		}
		stack = append(stack, idx)
	}

	if top := t.TopDepth(); top > 0 {
		for i := range t.Nodes {
			t.Nodes[i].Level = t.Nodes[i].Depth - top
		}
	}
	return t, nil
}

// Find returns the index of the node with id.
func (t *Tree) Find(id string) (int, error) {
	id, err := taskid.Parse(id)
	if err != nil {
		return -1, err
	}
	idx, ok := t.byID[taskid.Key(id)]
	if !ok {
		return -1, taskid.NotFound(id)
	}
	return idx, nil
}

// Node returns a copy of the node with id.
func (t *Tree) Node(id string) (Node, error) {
	idx, err := t.Find(id)
	if err != nil {
		return Node{}, err
	}
	return t.Nodes[idx], nil
}

// IDs lists every identifier in document order.
func (t *Tree) IDs() []string {
	ids := make([]string, len(t.Nodes))
	for i, n := range t.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// TopDepth is the shallowest task heading depth, or 0 without tasks.
func (t *Tree) TopDepth() int {
	top := 0
	for _, n := range t.Nodes {
		if top == 0 || n.Depth < top {
			top = n.Depth
		}
	}
	return top
}

// Body returns the node's own body lines, excluding any descendant heading.
func (t *Tree) Body(idx int) []string {
	n := t.Nodes[idx]
	return t.Doc.Lines[n.HeadingLine+1 : n.BodyEnd]
}

// IsHeading reports whether line i is a heading of any depth.
func (t *Tree) IsHeading(i int) bool {
	return i >= 0 && i < len(t.lines) && t.lines[i].depth > 0
}

func statusOf(line string) Status {
	switch {
	case marker.IsCompleted(line):
		return StatusCompleted
	case marker.IsInProgress(line):
		return StatusInProgress
	}
	return StatusNone
}

// titleOf strips the identifier, status tokens and inline markup from heading
// text. idEnd is the offset just past the identifier.
func titleOf(text string, idEnd int) string {
	rest := text[taskid.SkipClosingMarkup(text, idEnd):]
	rest = strings.ReplaceAll(rest, marker.Completed, "")
	rest = strings.ReplaceAll(rest, marker.InProgress, "")
	rest = strings.TrimLeft(rest, " \t:-|")
	return parser.HeadingText(rest)
}
