package mutation

import (
	"regexp"
	"strings"
)

// DefaultSelectorTag is used when a selector has no leading tag name.
const DefaultSelectorTag = "div"

var (
	leadingTagPattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9-]*)`)
	refinementPattern = regexp.MustCompile(`([#.])([A-Za-z0-9_-]+)`)
)

// SelectorParts is the part of a CSS selector the regex backend understands.
type SelectorParts struct {
	Tag   string
	ID    string
	Class string
}

// DecomposeSelector reduces a selector to its leading tag name (DefaultSelectorTag
// when absent) and the first #id or .class token. Combinators, attribute
// selectors and pseudo-classes are ignored.
func DecomposeSelector(selector string) SelectorParts {
	parts := SelectorParts{Tag: DefaultSelectorTag}

	if m := leadingTagPattern.FindStringSubmatch(selector); m != nil {
		parts.Tag = strings.ToLower(m[1])
	}

	if m := refinementPattern.FindStringSubmatch(selector); m != nil {
		if m[1] == "#" {
			parts.ID = m[2]
		} else {
			parts.Class = m[2]
		}
	}

	return parts
}

// Refined reports whether an id or class narrows the tag match.
func (p SelectorParts) Refined() bool {
	return p.ID != "" || p.Class != ""
}
