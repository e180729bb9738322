// Package linkpath canonicalizes link targets found in task bodies.
//
// Paths are handled as forward-slash strings. Current-directory segments are
// removed; parent segments ("..") are deliberately left as written.
package linkpath

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	drivePattern  = regexp.MustCompile(`^[A-Za-z]:(?:/|$)`)
	schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]+:`)
)

// IsExternal reports whether href points somewhere other than a local
// document: a URL with a non-file scheme, or a fragment within the same page.
func IsExternal(href string) bool {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "#") {
		return true
	}
	return schemePattern.MatchString(href) && !strings.HasPrefix(strings.ToLower(href), "file:")
}

// ResolveAbsolute turns href, as written in the document at docPath, into a
// normalized path. Relative hrefs are joined to the directory of docPath.
func ResolveAbsolute(href, docPath string) string {
	p := toSlash(decode(stripScheme(strings.TrimSpace(href))))
	if !IsAbsolute(p) {
		p = join(dir(toSlash(docPath)), p)
	}
	return Normalize(p)
}

// ResolveRelative resolves href like ResolveAbsolute and then, when the result
// sits under root, returns it relative to root. Paths outside root are
// returned absolute.
func ResolveRelative(href, docPath, root string) string {
	abs := ResolveAbsolute(href, docPath)
	root = strings.TrimRight(Normalize(toSlash(root)), "/")
	if root == "" {
		return abs
	}
	rest, ok := strings.CutPrefix(abs, root)
	if !ok || (rest != "" && rest[0] != '/') {
		return abs
	}
	rest = strings.TrimPrefix(rest, "/")
	return Normalize(rest)
}

// IsAbsolute reports whether p starts at a path root or a drive letter.
func IsAbsolute(p string) bool {
	p = toSlash(p)
	return strings.HasPrefix(p, "/") || drivePattern.MatchString(p)
}

// Normalize converts separators to '/' and removes every current-directory
// segment: "/./" inside the path, any number of leading "./" and trailing "/.".
// It is idempotent.
func Normalize(p string) string {
	p = toSlash(p)
	for {
		next := strings.ReplaceAll(p, "/./", "/")
		for strings.HasPrefix(next, "./") {
			next = next[2:]
		}
		for strings.HasSuffix(next, "/.") {
			next = next[:len(next)-2]
			if next == "" {
				next = "/"
			}
		}
		if next == "." {
			next = ""
		}
		if next == p {
			return p
		}
		p = next
	}
}

func stripScheme(s string) string {
	if len(s) < 5 || !strings.EqualFold(s[:5], "file:") {
		return s
	}
	s = s[5:]
	if strings.HasPrefix(s, "//") {
		s = s[2:]
	}
	// file:///C:/x leaves "/C:/x".
	if len(s) > 1 && s[0] == '/' && drivePattern.MatchString(s[1:]) {
		s = s[1:]
	}
	return s
}

func decode(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// dir returns everything before the last separator of p, without resolving
// any segments. "/doc.md" yields "/"; "doc.md" yields "".
func dir(p string) string {
	i := strings.LastIndexByte(p, '/')
	switch {
	case i < 0:
		return ""
	case i == 0:
		return "/"
	}
	return p[:i]
}

func join(base, rel string) string {
	switch {
	case base == "":
		return rel
	case strings.HasSuffix(base, "/"):
		return base + rel
	}
	return base + "/" + rel
}
