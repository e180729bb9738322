package taskid

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultPrefix is the letter used for new top-level identifiers.
const DefaultPrefix = "R"

// NextMainID returns prefix followed by one more than the largest top-level
// number already used with that prefix. Ids with any dot segment are ignored.
func NextMainID(existing []string, prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if len(prefix) != 1 || !isLetter(prefix[0]) {
		return "", Invalid(prefix, "prefix must be a single letter")
	}
	top := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `([0-9]+)$`)
	return prefix + strconv.Itoa(maxSuffix(existing, top)+1), nil
}

// NextSubID returns parent + "." + one more than the largest direct-child
// suffix under parent. Grandchildren do not count.
func NextSubID(existing []string, parent string) (string, error) {
	parent, err := Parse(parent)
	if err != nil {
		return "", err
	}
	child := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(parent) + `\.([0-9]+)$`)
	return parent + "." + strconv.Itoa(maxSuffix(existing, child)+1), nil
}

func maxSuffix(ids []string, re *regexp.Regexp) int {
	highest := 0
	for _, id := range ids {
		m := re.FindStringSubmatch(strings.TrimSpace(id))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
