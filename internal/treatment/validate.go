package treatment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingName      = errors.New("treatment tag has no name")
	ErrNoVariants       = errors.New("treatment tag has no variants")
	ErrMissingVariantID = errors.New("treatment variant has no identifier")
	ErrDuplicateVariant = errors.New("duplicate treatment variant")
)

// ValidateTag reports every problem found in tag, joined into one error.
func ValidateTag(tag Tag) error {
	var errs []error

	if strings.TrimSpace(tag.Name) == "" {
		errs = append(errs, ErrMissingName)
	}
	if len(tag.Variants) == 0 {
		errs = append(errs, ErrNoVariants)
	}

	seen := make(map[string]bool, len(tag.Variants))
	for _, v := range tag.Variants {
		if v.Variant.IsZero() {
			errs = append(errs, ErrMissingVariantID)
			continue
		}
		key := v.Variant.Key()
		if seen[key] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateVariant, v.Variant))
			continue
		}
		seen[key] = true
	}

	return errors.Join(errs...)
}
