// Package taskid holds the identifier grammar shared by every part of the
// engine: recognizing, locating and allocating dotted task identifiers such
// as R3, R3.1 and R3.1.2.
//
// Finding a task heading and rewriting its status markers both go through
// Locate and Leading, so the two can never disagree about where an
// identifier starts and ends.
package taskid

import (
	"regexp"
	"strings"
)

var (
	idPattern    = regexp.MustCompile(`^[A-Za-z][0-9]+(?:\.[0-9]+)*$`)
	tokenPattern = regexp.MustCompile(`[A-Za-z][0-9]+(?:\.[0-9]+)*`)
)

// openingMarkup may precede the identifier at the start of a heading, e.g. "## **R1** Title".
const openingMarkup = "*_`~"

// Valid reports whether id matches the identifier grammar.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// Parse trims id and validates it against the grammar.
func Parse(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !Valid(id) {
		return "", Invalid(id, "expected a letter followed by dotted numbers, e.g. R1.2")
	}
	return id, nil
}

// Equal compares identifiers case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Key returns the form used for map lookups and duplicate detection.
func Key(id string) string {
	return strings.ToUpper(id)
}

// Segments returns the number of dot-separated parts in id.
func Segments(id string) int {
	return strings.Count(id, ".") + 1
}

// Parent returns the identifier one level up, or "" for a top-level id.
func Parent(id string) string {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return ""
	}
	return id[:i]
}

// IsDirectChild reports whether child is parent plus exactly one numeric segment.
func IsDirectChild(child, parent string) bool {
	if !Valid(child) || !Valid(parent) {
		return false
	}
	return Segments(child) == Segments(parent)+1 && Equal(Parent(child), parent)
}

// IsDescendant reports whether id sits anywhere below ancestor.
func IsDescendant(id, ancestor string) bool {
	if len(id) <= len(ancestor)+1 {
		return false
	}
	return Equal(id[:len(ancestor)], ancestor) && id[len(ancestor)] == '.'
}

// Locate finds id as a whole token inside line. A token is bounded on the left
// by a character that is not a letter, digit, '_' or '.', and is maximal on the
// right, so R1 is never found inside R10 or R1.2. Comparison ignores case.
func Locate(line, id string) (start, end int, ok bool) {
	for _, loc := range tokenPattern.FindAllStringIndex(line, -1) {
		if !boundaryBefore(line, loc[0]) || !boundaryAfter(line, loc[1]) {
			continue
		}
		if Equal(line[loc[0]:loc[1]], id) {
			return loc[0], loc[1], true
		}
	}
	return 0, 0, false
}

// Leading returns the identifier that opens text, skipping leading whitespace
// and opening emphasis or code markers. Offsets are relative to text.
func Leading(text string) (id string, start, end int, ok bool) {
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	for i < len(text) && strings.IndexByte(openingMarkup, text[i]) >= 0 {
		i++
	}
	loc := tokenPattern.FindStringIndex(text[i:])
	if loc == nil || loc[0] != 0 {
		return "", 0, 0, false
	}
	start, end = i, i+loc[1]
	if !boundaryBefore(text, start) || !boundaryAfter(text, end) {
		return "", 0, 0, false
	}
	return text[start:end], start, end, true
}

// SkipClosingMarkup advances past emphasis or code markers that close a run
// opened before the identifier.
func SkipClosingMarkup(line string, end int) int {
	for end < len(line) && strings.IndexByte(openingMarkup, line[end]) >= 0 {
		end++
	}
	return end
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	return !isWord(c) && c != '.'
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	return !isWord(s[i])
}

func isWord(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
