// Package mutation applies DOMChange batches to HTML. Two backends share one
// contract: TreeApplier parses the document and uses full CSS selectors,
// RegexApplier works on the raw string and understands only tag, id and class.
package mutation

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/logger"
	"github.com/jonesrussell/abedge/internal/metrics"
	"github.com/jonesrussell/abedge/internal/sanitize"
)

// Backend names, also used as metric labels.
const (
	BackendTree  = "tree"
	BackendRegex = "regex"
)

// Applier applies a batch of changes to an HTML string.
//
// A failing change is logged and skipped; an error is returned only when the
// whole batch could not be processed, in which case the input is returned.
type Applier interface {
	ApplyChanges(markup string, changes []domain.DOMChange) (string, error)
	Name() string
}

// Option configures an applier.
type Option func(*options)

type options struct {
	logger    logger.Interface
	sanitizer *sanitize.Sanitizer
	metrics   *metrics.Metrics
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logger.Interface) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithSanitizer sets the sanitizer used for html, attribute and create values.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(o *options) {
		o.sanitizer = s
	}
}

// WithMetrics records applied, failed and missed changes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNoOp()
	}
	if o.sanitizer == nil {
		o.sanitizer = sanitize.New(o.logger)
	}
	return o
}

// applyEach runs apply for every change, isolating failures, and returns the
// number of changes that were applied.
func (o *options) applyEach(backend string, changes []domain.DOMChange, apply func(domain.DOMChange) error) int {
	applied := 0
	for _, change := range changes {
		if change.Type == domain.ChangeJavaScript {
			o.logger.Debug("JavaScript changes are not supported server-side, skipping", change.LogFields()...)
			continue
		}

		if err := domain.ValidateChange(change); err != nil {
			o.fail(backend, change, err)
			continue
		}

		if err := safely(change, apply); err != nil {
			o.fail(backend, change, err)
			continue
		}

		applied++
		o.metrics.ChangeApplied(backend, change.Type.String())
	}
	return applied
}

func (o *options) fail(backend string, change domain.DOMChange, err error) {
	fields := append(change.LogFields(), "backend", backend, "error", err.Error())

	if errors.Is(err, ErrSelectorMiss) {
		o.logger.Warn("No elements matched selector", fields...)
		o.metrics.SelectorMissed(backend)
		return
	}

	o.logger.Error("Failed to apply change, skipping", fields...)
	o.metrics.ChangeFailed(backend, change.Type.String())
}

// attributeValue sanitizes value and reports whether the attribute may be set.
// A value emptied by the sanitizer means the attribute must be dropped.
func (o *options) attributeValue(name, value string) (string, bool) {
	sanitized := o.sanitizer.SanitizeAttributeValue(name, value)
	if sanitized == "" && (value != "" || sanitize.IsEventHandler(name)) {
		return "", false
	}
	return sanitized, true
}

// safely converts a panic in apply into ErrChangePanicked.
func safely(change domain.DOMChange, apply func(domain.DOMChange) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrChangePanicked, r)
		}
	}()
	return apply(change)
}
