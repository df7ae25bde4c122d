// Package strcase converts identifiers between camelCase and kebab-case,
// the two spellings of CSS property names.
package strcase

import (
	"strings"
	"unicode"
)

// CamelToKebab converts "backgroundColor" to "background-color".
// A leading upper-case letter marks a vendor prefix: "WebkitTransform"
// becomes "-webkit-transform". Names already containing hyphens are only lower-cased.
func CamelToKebab(s string) string {
	if s == "" || strings.Contains(s, "-") {
		return strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 || isVendorPrefixed(s) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KebabToCamel converts "background-color" to "backgroundColor" and
// "-webkit-transform" to "WebkitTransform".
func KebabToCamel(s string) string {
	if !strings.Contains(s, "-") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	upperNext := false
	for i, r := range s {
		if r == '-' {
			upperNext = true
			continue
		}
		if upperNext && (i > 1 || s[0] == '-') {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		upperNext = false
	}
	return b.String()
}

var vendorPrefixes = []string{"Webkit", "Moz", "Ms", "O"}

func isVendorPrefixed(s string) bool {
	for _, p := range vendorPrefixes {
		if strings.HasPrefix(s, p) && len(s) > len(p) && unicode.IsUpper(rune(s[len(p)])) {
			return true
		}
	}
	return false
}
