// Package treatment resolves inline Treatment markup to the content of the
// variant assigned to the current request.
//
// Markup:
//
//	<Treatment name="hero" trigger-on-view>
//	  <TreatmentVariant variant="0">Control</TreatmentVariant>
//	  <TreatmentVariant variant="1">Variant</TreatmentVariant>
//	</Treatment>
package treatment

import (
	"strconv"
	"strings"
)

// VariantID identifies a variant. Identifiers made only of decimal digits are
// numeric ("00" is 0); anything else is a string compared case-insensitively.
type VariantID struct {
	raw     string
	num     int
	numeric bool
}

// ParseVariantID normalizes a raw identifier.
func ParseVariantID(raw string) VariantID {
	raw = strings.TrimSpace(raw)
	if raw != "" && isDigits(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return VariantID{raw: raw, num: n, numeric: true}
		}
	}
	return VariantID{raw: raw}
}

// NumericID returns the numeric identifier n.
func NumericID(n int) VariantID {
	return VariantID{raw: strconv.Itoa(n), num: n, numeric: true}
}

// IsNumeric reports whether the identifier is a number.
func (v VariantID) IsNumeric() bool {
	return v.numeric
}

// IsZero reports whether the identifier is missing.
func (v VariantID) IsZero() bool {
	return v.raw == "" && !v.numeric
}

// Number returns the numeric value, if any.
func (v VariantID) Number() (int, bool) {
	return v.num, v.numeric
}

// String returns the normalized identifier ("007" becomes "7").
func (v VariantID) String() string {
	if v.numeric {
		return strconv.Itoa(v.num)
	}
	return v.raw
}

// Key is the identity used for duplicate detection.
func (v VariantID) Key() string {
	if v.numeric {
		return "#" + strconv.Itoa(v.num)
	}
	return "$" + strings.ToLower(v.raw)
}

// EqualsNumber reports whether v is numeric and equal to n.
func (v VariantID) EqualsNumber(n int) bool {
	return v.numeric && v.num == n
}

// EqualsFold reports whether v is a string identifier equal to s ignoring case.
func (v VariantID) EqualsFold(s string) bool {
	return !v.numeric && strings.EqualFold(v.raw, s)
}

// MatchesName compares v with a variant name from an assignment mapping:
// case-insensitively for strings, by value for numbers.
func (v VariantID) MatchesName(name string) bool {
	name = strings.TrimSpace(name)
	if v.numeric {
		other := ParseVariantID(name)
		return other.numeric && other.num == v.num
	}
	return strings.EqualFold(v.raw, name)
}

// VariantDefinition is one variant of a Treatment tag.
type VariantDefinition struct {
	Variant VariantID
	Content string
}

// Tag is one parsed Treatment block.
type Tag struct {
	// Name is the experiment name.
	Name string
	// TriggerOnView wraps the resolved content in a tracking container.
	TriggerOnView bool
	// Variants are listed in document order.
	Variants []VariantDefinition
	// FullMatch is the exact markup of the block, open to close delimiter.
	FullMatch string
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
