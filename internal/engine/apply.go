package engine

import (
	"fmt"
	"strings"

	"github.com/dgallion1/taskdoc/internal/doctree"
	"github.com/dgallion1/taskdoc/internal/marker"
	"github.com/dgallion1/taskdoc/internal/taskid"
)

const maxHeadingDepth = 6

// Apply runs op against text and returns the new text.
func Apply(text string, op Operation, opts Options) (string, error) {
	res, err := Run(text, op, opts)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Run is Apply that also reports which task was created or edited.
func Run(text string, op Operation, opts Options) (Result, error) {
	opts = opts.withDefaults()
	tree, err := doctree.Index(doctree.Parse(text))
	if err != nil {
		return Result{}, err
	}

	var (
		doc doctree.Document
		id  string
	)
	switch op.Kind {
	case OpDelete:
		id = op.ID
		doc, err = DeleteTask(tree, op.ID)
	case OpReplaceBody:
		id = op.ID
		doc, err = ReplaceBody(tree, op.ID, op.Body)
	case OpInsertSubtask:
		id, doc, err = InsertSubtask(tree, op.ID, op.NewID, op.Title, bodyOr(op.Body, opts.Placeholder))
	case OpInsertMain:
		id, doc, err = InsertMainTask(tree, op.NewID, op.Title, bodyOr(op.Body, opts.Placeholder), opts)
	case OpSetStatus:
		id = op.ID
		doc, err = SetStatus(tree, op.ID, op.Status, opts.Markers)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Text: doc.String(), ID: id}, nil
}

// DeleteTask removes the task and its whole subtree.
func DeleteTask(tree *doctree.Tree, id string) (doctree.Document, error) {
	idx, err := tree.Find(id)
	if err != nil {
		return doctree.Document{}, err
	}
	n := tree.Nodes[idx]
	return tree.Doc.Splice(n.HeadingLine, n.SubtreeEnd, nil), nil
}

// ReplaceBody swaps the task's own body for body. The heading line is kept
// verbatim and descendants are not touched. One blank line follows the
// heading, and one blank line precedes whatever heading comes next.
func ReplaceBody(tree *doctree.Tree, id, body string) (doctree.Document, error) {
	idx, err := tree.Find(id)
	if err != nil {
		return doctree.Document{}, err
	}
	n := tree.Nodes[idx]
	follows := tree.IsHeading(n.BodyEnd)

	lines := doctree.SplitBody(body)
	var repl []string
	if len(lines) > 0 {
		repl = make([]string, 0, len(lines)+2)
		repl = append(repl, "")
		repl = append(repl, lines...)
	}
	if follows {
		repl = append(repl, "")
	}
	repl = terminate(repl, lineEnding(tree.Doc.Lines[n.HeadingLine]), !follows && !tree.Doc.TrailingNewline)
	return tree.Doc.Splice(n.HeadingLine+1, n.BodyEnd, repl), nil
}

// InsertSubtask adds a new first child under parentID. It is placed after the
// parent's own body and before any existing child, so the parent keeps its
// description. An empty newID allocates the next free child id.
func InsertSubtask(tree *doctree.Tree, parentID, newID, title, body string) (string, doctree.Document, error) {
	idx, err := tree.Find(parentID)
	if err != nil {
		return "", doctree.Document{}, err
	}
	p := tree.Nodes[idx]
	if p.Depth >= maxHeadingDepth {
		return "", doctree.Document{}, taskid.Invalid(p.ID, "cannot nest below heading depth 6")
	}

	if newID == "" {
		if newID, err = taskid.NextSubID(tree.IDs(), p.ID); err != nil {
			return "", doctree.Document{}, err
		}
	} else {
		if newID, err = taskid.Parse(newID); err != nil {
			return "", doctree.Document{}, err
		}
		if !taskid.IsDirectChild(newID, p.ID) {
			return "", doctree.Document{}, taskid.Invalid(newID, fmt.Sprintf("not a direct child of %s", p.ID))
		}
		if err := checkUnused(tree, newID); err != nil {
			return "", doctree.Document{}, err
		}
	}

	at := p.BodyEnd
	var block []string
	if !doctree.IsBlank(tree.Doc.Lines[at-1]) {
		block = append(block, "")
	}
	block = append(block, taskBlock(p.Depth+1, newID, title, body)...)
	follows := tree.IsHeading(at)
	if follows {
		block = append(block, "")
	}
	block = terminate(block, lineEnding(tree.Doc.Lines[p.HeadingLine]), !follows && !tree.Doc.TrailingNewline)
	return newID, tree.Doc.Splice(at, at, block), nil
}

// InsertMainTask appends a new top-level task at the end of the document.
// Its depth matches the shallowest existing task, or opts.TopLevelDepth when
// the document has none.
func InsertMainTask(tree *doctree.Tree, newID, title, body string, opts Options) (string, doctree.Document, error) {
	opts = opts.withDefaults()
	var err error
	if newID == "" {
		if newID, err = taskid.NextMainID(tree.IDs(), opts.Prefix); err != nil {
			return "", doctree.Document{}, err
		}
	} else {
		if newID, err = taskid.Parse(newID); err != nil {
			return "", doctree.Document{}, err
		}
		if taskid.Segments(newID) != 1 {
			return "", doctree.Document{}, taskid.Invalid(newID, "top-level ids have no dot segments")
		}
		if err := checkUnused(tree, newID); err != nil {
			return "", doctree.Document{}, err
		}
	}

	depth := tree.TopDepth()
	if depth == 0 {
		depth = opts.TopLevelDepth
	}

	doc := tree.Doc
	var (
		block []string
		eol   string
	)
	if n := doc.Len(); n > 0 {
		eol = lineEnding(doc.Lines[0])
		if !doctree.IsBlank(doc.Lines[n-1]) {
			block = append(block, "")
		}
	}
	block = append(block, taskBlock(depth, newID, title, body)...)
	block = terminate(block, eol, !doc.TrailingNewline)
	return newID, doc.Splice(doc.Len(), doc.Len(), block), nil
}

// SetStatus rewrites the status tokens on the task's heading line.
func SetStatus(tree *doctree.Tree, id string, status doctree.Status, policy marker.Policy) (doctree.Document, error) {
	idx, err := tree.Find(id)
	if err != nil {
		return doctree.Document{}, err
	}
	n := tree.Nodes[idx]
	line := tree.Doc.Lines[n.HeadingLine]

	var next string
	switch status {
	case doctree.StatusCompleted:
		next, err = marker.SetCompleted(line, n.ID)
	case doctree.StatusInProgress:
		next, err = policy.SetInProgress(line, n.ID)
	case doctree.StatusNone, "":
		next = marker.ClearCompleted(marker.ClearInProgress(line))
	default:
		return doctree.Document{}, fmt.Errorf("%w: status %q", ErrUnknownOperation, status)
	}
	if err != nil {
		return doctree.Document{}, err
	}
	return tree.Doc.Splice(n.HeadingLine, n.HeadingLine+1, []string{next}), nil
}

func checkUnused(tree *doctree.Tree, id string) error {
	if _, err := tree.Find(id); err == nil {
		return taskid.Duplicate(id, "identifier already in use")
	}
	return nil
}

// taskBlock renders a heading, a blank line and the body lines.
func taskBlock(depth int, id, title, body string) []string {
	heading := strings.Repeat("#", depth) + " " + id
	if title = strings.Join(strings.Fields(title), " "); title != "" {
		heading += " " + title
	}
	block := []string{heading}
	if lines := doctree.SplitBody(body); len(lines) > 0 {
		block = append(block, "")
		block = append(block, lines...)
	}
	return block
}

// lineEnding returns "\r" when line came from a CRLF document.
func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r") {
		return "\r"
	}
	return ""
}

// terminate appends eol to every inserted line. When the block ends a
// document without a final newline its last line stays bare.
func terminate(block []string, eol string, last bool) []string {
	if eol == "" {
		return block
	}
	for i := range block {
		if last && i == len(block)-1 {
			break
		}
		block[i] += eol
	}
	return block
}

func bodyOr(body, placeholder string) string {
	if strings.TrimSpace(body) == "" {
		return placeholder
	}
	return body
}
