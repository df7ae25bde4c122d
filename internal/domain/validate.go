package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation errors.
var (
	// ErrMalformedChange is returned when a change lacks a field its type requires.
	ErrMalformedChange = errors.New("malformed change")
	// ErrInvalidExperiment is returned when experiment data cannot be used.
	ErrInvalidExperiment = errors.New("invalid experiment")
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateChange checks that a change carries the fields its type requires.
func ValidateChange(change DOMChange) error {
	if err := validate.Struct(change); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedChange, describe(err))
	}
	if change.Type == ChangeStyle && change.Value == nil {
		return fmt.Errorf("%w: style change requires a value", ErrMalformedChange)
	}
	return nil
}

// ValidateExperiment checks the experiment name and every change it carries.
func ValidateExperiment(exp ExperimentData) error {
	if err := validate.Struct(exp); err != nil {
		return fmt.Errorf("%w %q: %s", ErrInvalidExperiment, exp.Name, describe(err))
	}
	return nil
}

// describe flattens validator errors into "Field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
