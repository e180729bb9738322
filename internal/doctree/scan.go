package doctree

import "strings"

// lineInfo is the record kept for every line of a document.
type lineInfo struct {
	depth int    // ATX heading level, 0 when the line is not a heading
	text  string // heading content after the '#' run
}

// scan classifies every line once. Lines inside fenced code blocks are never
// headings, so "# comment" in a shell snippet cannot end a task body. A fence
// that is never closed is read as an ordinary line, and scanning resumes on
// the line after it.
func scan(lines []string) []lineInfo {
	out := make([]lineInfo, len(lines))
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if f := opensFence(line); f != "" {
			if end := fenceEnd(lines, i+1, f); end >= 0 {
				i = end
				continue
			}
		}
		out[i].depth, out[i].text = Heading(line)
	}
	return out
}

// fenceEnd returns the index of the line closing fence, searching from start,
// or -1 when the document ends first.
func fenceEnd(lines []string, start int, fence string) int {
	for j := start; j < len(lines); j++ {
		if closesFence(strings.TrimSuffix(lines[j], "\r"), fence) {
			return j
		}
	}
	return -1
}

// Heading parses an ATX heading: up to three spaces of indent, one to six
// '#', then whitespace or end of line. It returns depth 0 for other lines.
func Heading(line string) (depth int, text string) {
	line = strings.TrimSuffix(line, "\r")
	rest, ok := trimIndent(line)
	if !ok {
		return 0, ""
	}
	n := 0
	for n < len(rest) && rest[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, ""
	}
	if n < len(rest) && rest[n] != ' ' && rest[n] != '\t' {
		return 0, ""
	}
	return n, strings.TrimSpace(rest[n:])
}

func trimIndent(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	if i > 3 {
		return "", false
	}
	return line[i:], true
}

// opensFence returns the backtick or tilde run that opens a code block.
func opensFence(line string) string {
	rest, ok := trimIndent(line)
	if !ok || len(rest) < 3 || (rest[0] != '`' && rest[0] != '~') {
		return ""
	}
	n := 0
	for n < len(rest) && rest[n] == rest[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	if rest[0] == '`' && strings.IndexByte(rest[n:], '`') >= 0 {
		return ""
	}
	return rest[:n]
}

func closesFence(line, fence string) bool {
	rest, ok := trimIndent(line)
	if !ok {
		return false
	}
	n := 0
	for n < len(rest) && rest[n] == fence[0] {
		n++
	}
	return n >= len(fence) && strings.TrimSpace(rest[n:]) == ""
}
