package doctree

// SubtreeEnd returns the exclusive end of the subtree whose heading sits on
// headingLine: the first later heading with depth <= depth, or the document
// length. Every heading is a candidate whatever status marker it carries.
func (t *Tree) SubtreeEnd(headingLine, depth int) int {
	for i := headingLine + 1; i < len(t.lines); i++ {
		if d := t.lines[i].depth; d > 0 && d <= depth {
			return i
		}
	}
	return len(t.lines)
}

// BodyEnd returns the exclusive end of the heading's own body: the first later
// heading of any depth before subtreeEnd, or subtreeEnd itself. Descendant
// headings end the body too, so replacing a body never reaches into children.
func (t *Tree) BodyEnd(headingLine, subtreeEnd int) int {
	for i := headingLine + 1; i < subtreeEnd; i++ {
		if t.lines[i].depth > 0 {
			return i
		}
	}
	return subtreeEnd
}
