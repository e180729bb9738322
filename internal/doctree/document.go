package doctree

import "strings"

// Document is a snapshot of a markdown file as lines. TrailingNewline records
// whether the original text ended with "\n" and survives every edit.
type Document struct {
	Lines           []string
	TrailingNewline bool
}

// Parse splits text into lines. A final "\n" sets TrailingNewline rather than
// producing an empty last line. Empty text has no lines.
func Parse(text string) Document {
	if text == "" {
		return Document{}
	}
	body, trailing := strings.CutSuffix(text, "\n")
	return Document{
		Lines:           strings.Split(body, "\n"),
		TrailingNewline: trailing,
	}
}

// String reassembles the document text.
func (d Document) String() string {
	if len(d.Lines) == 0 {
		return ""
	}
	s := strings.Join(d.Lines, "\n")
	if d.TrailingNewline {
		s += "\n"
	}
	return s
}

// Len returns the number of lines.
func (d Document) Len() int {
	return len(d.Lines)
}

// Splice returns a new document with lines [start, end) replaced by repl.
// The receiver is not modified.
func (d Document) Splice(start, end int, repl []string) Document {
	lines := make([]string, 0, len(d.Lines)-(end-start)+len(repl))
	lines = append(lines, d.Lines[:start]...)
	lines = append(lines, repl...)
	lines = append(lines, d.Lines[end:]...)
	return Document{Lines: lines, TrailingNewline: d.TrailingNewline}
}

// SplitBody turns caller-supplied body text into lines. Line endings are
// normalized and blank lines at either edge are dropped; interior content is
// kept byte for byte.
func SplitBody(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")
	start, end := 0, len(lines)
	for start < end && IsBlank(lines[start]) {
		start++
	}
	for end > start && IsBlank(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
