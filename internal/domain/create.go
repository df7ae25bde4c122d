package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DefaultCreateTag is used when a create change does not name a tag.
const DefaultCreateTag = "div"

// ErrInvalidCreateValue is returned when a create payload cannot be decoded.
var ErrInvalidCreateValue = errors.New("invalid create value")

// CreateSpec describes the element built by a create change.
type CreateSpec struct {
	Tag        string            `mapstructure:"tag"`
	HTML       string            `mapstructure:"html"`
	Attributes map[string]string `mapstructure:"attributes"`
}

// DecodeCreateSpec decodes the Value of a create change.
// A plain string value is treated as the element's inner HTML.
func DecodeCreateSpec(value any) (CreateSpec, error) {
	var spec CreateSpec

	switch v := value.(type) {
	case nil:
	case string:
		spec.HTML = v
	case CreateSpec:
		spec = v
	case *CreateSpec:
		if v != nil {
			spec = *v
		}
	default:
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &spec,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return spec, fmt.Errorf("create decoder: %w", err)
		}
		if decodeErr := decoder.Decode(value); decodeErr != nil {
			return spec, fmt.Errorf("%w: %w", ErrInvalidCreateValue, decodeErr)
		}
	}

	spec.Tag = strings.ToLower(strings.TrimSpace(spec.Tag))
	if spec.Tag == "" {
		spec.Tag = DefaultCreateTag
	}
	if !validTagName(spec.Tag) {
		return spec, fmt.Errorf("%w: tag %q", ErrInvalidCreateValue, spec.Tag)
	}

	return spec, nil
}

// validTagName accepts letters, digits and hyphens, starting with a letter.
func validTagName(tag string) bool {
	for i, r := range tag {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return tag != ""
}
