package treatment

import (
	"html"
	"strings"
)

// Step names the rule that picked a variant.
type Step string

const (
	StepDirect     Step = "direct"
	StepMapping    Step = "mapping"
	StepAlphabetic Step = "alphabetic"
	StepFallback   Step = "fallback"
	StepNone       Step = "none"
)

// maxLetterIndex is the highest treatment index that maps to a letter (Z).
const maxLetterIndex = 25

// SelectVariant picks the variant for the selected treatment index:
//
//  1. a numeric variant equal to the index
//  2. a variant whose identifier is a mapping key assigned to the index
//  3. the letter variant for the index (0 is A, 1 is B, up to Z)
//  4. variant 0, then variant A
//
// A nil selection skips straight to step 4. It returns nil and StepNone when
// nothing matches.
func SelectVariant(tag Tag, selected *int, mapping map[string]int) (*VariantDefinition, Step) {
	if selected != nil && *selected >= 0 {
		n := *selected

		if v := tag.find(func(id VariantID) bool { return id.EqualsNumber(n) }); v != nil {
			return v, StepDirect
		}

		if v := tag.findMapped(n, mapping); v != nil {
			return v, StepMapping
		}

		if n <= maxLetterIndex {
			letter := string(rune('A' + n))
			if v := tag.find(func(id VariantID) bool { return id.EqualsFold(letter) }); v != nil {
				return v, StepAlphabetic
			}
		}
	}

	if v := tag.find(func(id VariantID) bool { return id.EqualsNumber(0) }); v != nil {
		return v, StepFallback
	}
	if v := tag.find(func(id VariantID) bool { return id.EqualsFold("A") }); v != nil {
		return v, StepFallback
	}

	return nil, StepNone
}

func (t Tag) find(match func(VariantID) bool) *VariantDefinition {
	for i := range t.Variants {
		if match(t.Variants[i].Variant) {
			return &t.Variants[i]
		}
	}
	return nil
}

// findMapped walks variants in document order so the result does not depend
// on map iteration order.
func (t Tag) findMapped(n int, mapping map[string]int) *VariantDefinition {
	if len(mapping) == 0 {
		return nil
	}
	return t.find(func(id VariantID) bool {
		for name, idx := range mapping {
			if idx == n && id.MatchesName(name) {
				return true
			}
		}
		return false
	})
}

// Render returns the replacement markup for tag given the chosen variant.
// Trigger-on-view tags are always wrapped, even when v is nil.
func Render(tag Tag, v *VariantDefinition) string {
	content := ""
	if v != nil {
		content = v.Content
	}
	if !tag.TriggerOnView {
		return content
	}

	var b strings.Builder
	b.WriteString(`<div data-absmartly-experiment="`)
	b.WriteString(html.EscapeString(tag.Name))
	b.WriteString(`" data-absmartly-trigger-on-view style="display: contents">`)
	b.WriteString(content)
	b.WriteString(`</div>`)
	return b.String()
}
