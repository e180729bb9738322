// Package parser wraps goldmark for the two places the engine needs real
// markdown understanding: plain-text titles of task headings and the link
// targets referenced from a task body.
package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// HeadingText renders the inline markdown of a heading as plain text:
// emphasis, strong, code spans and link wrappers are dropped, their text kept.
// It must only be given heading text; body lines are never rewritten.
func HeadingText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Parsing as a heading keeps "1. Foo" or "- Foo" from turning into lists.
	src := []byte("# " + s)
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			inlineText(h, src, &buf)
			break
		}
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// inlineText collects the text content of inline children.
func inlineText(n ast.Node, src []byte, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.URL(src))
		case *ast.RawHTML:
			// Inline tags carry no title text.
		default:
			inlineText(c, src, buf)
		}
	}
}

// LinkKind says where a link target was found.
type LinkKind string

const (
	LinkMarkdown LinkKind = "link"
	LinkImage    LinkKind = "image"
	LinkAuto     LinkKind = "autolink"
	LinkHTML     LinkKind = "html"
)

// Link is one reference found in a task body.
type Link struct {
	Target string   `json:"target" yaml:"target"`
	Kind   LinkKind `json:"kind" yaml:"kind"`
}

// Links returns every link target in body, in document order. Inline and
// reference-style links, images, URL autolinks and href/src attributes of raw
// HTML are included.
func Links(body string) []Link {
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))

	var links []Link
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			links = appendLink(links, string(node.Destination), LinkMarkdown)
		case *ast.Image:
			links = appendLink(links, string(node.Destination), LinkImage)
		case *ast.AutoLink:
			if node.AutoLinkType == ast.AutoLinkURL {
				links = appendLink(links, string(node.URL(src)), LinkAuto)
			}
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(src))
			}
			for _, ref := range htmlRefs(buf.String()) {
				links = appendLink(links, ref, LinkHTML)
			}
		case *ast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(src))
			}
			for _, ref := range htmlRefs(buf.String()) {
				links = appendLink(links, ref, LinkHTML)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return links
}

func appendLink(links []Link, target string, kind LinkKind) []Link {
	target = strings.TrimSpace(target)
	if target == "" {
		return links
	}
	return append(links, Link{Target: target, Kind: kind})
}
