package treatment

import (
	"regexp"
	"strings"
)

var (
	// Tag names are case-insensitive; bodies may span lines. The outer pattern
	// requires whitespace or ">" after the name so it never matches TreatmentVariant.
	outerTagPattern = regexp.MustCompile(`(?is)<treatment(\s[^>]*)?>(.*?)</treatment\s*>`)
	innerTagPattern = regexp.MustCompile(`(?is)<treatmentvariant(\s[^>]*)?>(.*?)</treatmentvariant\s*>`)

	nameAttrPattern    = attrPattern(`name`)
	variantAttrPattern = attrPattern(`variant`)
	triggerAttrPattern = regexp.MustCompile(
		`(?i)(?:^|\s)trigger[-_]?on[-_]?view(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?(?:\s|/|$)`,
	)
)

// attrPattern matches name=value with double, single or no quotes.
func attrPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\s)` + name + `\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
}

// Parse returns every Treatment block in document order. Blocks are not
// validated; see ValidateTag.
func Parse(markup string) []Tag {
	matches := outerTagPattern.FindAllStringSubmatch(markup, -1)
	if len(matches) == 0 {
		return nil
	}

	tags := make([]Tag, 0, len(matches))
	for _, m := range matches {
		attrs, body := m[1], m[2]
		name, _ := attrValue(nameAttrPattern, attrs)
		tags = append(tags, Tag{
			Name:          strings.TrimSpace(name),
			TriggerOnView: triggerOnView(attrs),
			Variants:      parseVariants(body),
			FullMatch:     m[0],
		})
	}
	return tags
}

// parseVariants scans only the body captured between the outer delimiters.
func parseVariants(body string) []VariantDefinition {
	matches := innerTagPattern.FindAllStringSubmatch(body, -1)
	variants := make([]VariantDefinition, 0, len(matches))
	for _, m := range matches {
		raw, _ := attrValue(variantAttrPattern, m[1])
		variants = append(variants, VariantDefinition{
			Variant: ParseVariantID(raw),
			Content: strings.TrimSpace(m[2]),
		})
	}
	return variants
}

// attrValue returns the first quoted or unquoted value captured by p.
func attrValue(p *regexp.Regexp, attrs string) (string, bool) {
	m := p.FindStringSubmatch(attrs)
	if m == nil {
		return "", false
	}
	for _, v := range m[1:] {
		if v != "" {
			return v, true
		}
	}
	return "", true
}

// triggerOnView accepts the bare attribute or any value other than false/0.
func triggerOnView(attrs string) bool {
	value, present := attrValue(triggerAttrPattern, attrs)
	if !present {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "0", "no":
		return false
	default:
		return true
	}
}
