// Package doctree indexes the task headings of a markdown document.
//
// A document is tokenized once into line records; task nodes are kept in a
// flat slice in document order and refer to each other by index. Nothing is
// cached between calls: every query re-indexes the snapshot it is given.
package doctree

// Status is derived from the literal tokens on a task's heading line.
type Status string

const (
	StatusNone       Status = "none"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Node is one task heading and the line ranges that belong to it.
type Node struct {
	ID     string `json:"id" yaml:"id"`
	Depth  int    `json:"depth" yaml:"depth"` // number of '#' markers
	Level  int    `json:"level" yaml:"level"` // Depth minus the shallowest task depth in the document
	Status Status `json:"status" yaml:"status"`
	Title  string `json:"title" yaml:"title"`

	HeadingLine int `json:"heading_line" yaml:"heading_line"`
	SubtreeEnd  int `json:"subtree_end" yaml:"subtree_end"` // exclusive; first heading at depth <= Depth
	BodyEnd     int `json:"body_end" yaml:"body_end"`       // exclusive; first heading of any depth

	Parent   int   `json:"parent" yaml:"parent"` // index into Tree.Nodes, -1 for top-level tasks
	Children []int `json:"children,omitempty" yaml:"children,omitempty"`
}

// HasBody reports whether any line sits between the heading and BodyEnd.
func (n Node) HasBody() bool {
	return n.BodyEnd > n.HeadingLine+1
}
