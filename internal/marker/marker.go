// Package marker adds, removes and detects status tokens on a task heading line.
package marker

import (
	"regexp"
	"strings"

	"github.com/dgallion1/taskdoc/internal/taskid"
)

// Literal status tokens. They are only ever read from or written to heading lines.
const (
	Completed  = "[completed]"
	InProgress = "[in_progress]"
)

var (
	completedRun  = regexp.MustCompile(`[ \t]*` + regexp.QuoteMeta(Completed))
	inProgressRun = regexp.MustCompile(`[ \t]*` + regexp.QuoteMeta(InProgress))
)

// Policy controls how conflicting tokens interact.
type Policy struct {
	// ClearCompletedOnStart removes an existing completed token when a task is
	// marked in progress. Off by default, which lets both tokens coexist.
	ClearCompletedOnStart bool
}

// IsCompleted is a literal substring test on a heading line.
func IsCompleted(line string) bool {
	return strings.Contains(line, Completed)
}

// IsInProgress is a literal substring test on a heading line.
func IsInProgress(line string) bool {
	return strings.Contains(line, InProgress)
}

// SetCompleted drops any in-progress token and places the completed token
// directly after id, whatever text follows the identifier.
func SetCompleted(line, id string) (string, error) {
	out, err := insertAfterID(ClearCompleted(ClearInProgress(line)), id, Completed)
	if err != nil {
		return line, err
	}
	return out, nil
}

// SetInProgress places the in-progress token directly after id. An existing
// completed token is kept unless p.ClearCompletedOnStart is set.
func (p Policy) SetInProgress(line, id string) (string, error) {
	next := ClearInProgress(line)
	if p.ClearCompletedOnStart {
		next = ClearCompleted(next)
	}
	out, err := insertAfterID(next, id, InProgress)
	if err != nil {
		return line, err
	}
	return out, nil
}

// SetInProgress applies the default Policy.
func SetInProgress(line, id string) (string, error) {
	return Policy{}.SetInProgress(line, id)
}

// ClearCompleted removes the completed token and the whitespace before it.
// Lines without the token are returned unchanged.
func ClearCompleted(line string) string {
	return completedRun.ReplaceAllLiteralString(line, "")
}

// ClearInProgress removes the in-progress token and the whitespace before it.
func ClearInProgress(line string) string {
	return inProgressRun.ReplaceAllLiteralString(line, "")
}

// insertAfterID writes token right after the identifier, collapsing whatever
// whitespace followed it into single spaces on both sides of the token.
func insertAfterID(line, id, token string) (string, error) {
	line, cr := strings.CutSuffix(line, "\r")
	_, end, ok := taskid.Locate(line, id)
	if !ok {
		return "", taskid.NotFound(id)
	}
	end = taskid.SkipClosingMarkup(line, end)

	rest := strings.TrimLeft(line[end:], " \t")
	var b strings.Builder
	b.Grow(len(line) + len(token) + 2)
	b.WriteString(line[:end])
	b.WriteByte(' ')
	b.WriteString(token)
	if rest != "" {
		b.WriteByte(' ')
		b.WriteString(rest)
	}
	if cr {
		b.WriteByte('\r')
	}
	return b.String(), nil
}
