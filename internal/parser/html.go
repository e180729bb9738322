package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlRefs extracts href and src attribute values from an HTML fragment.
func htmlRefs(fragment string) []string {
	var refs []string
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed fragment; either way nothing more to read.
			return refs
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if attr := refAttr(tok.Data); attr != "" {
				for _, a := range tok.Attr {
					if a.Key == attr && strings.TrimSpace(a.Val) != "" {
						refs = append(refs, a.Val)
					}
				}
			}
		}
	}
}

// refAttr names the attribute that carries a document reference for tag.
func refAttr(tag string) string {
	switch tag {
	case "a", "link", "area":
		return "href"
	case "img", "source", "iframe", "embed":
		return "src"
	}
	return ""
}
