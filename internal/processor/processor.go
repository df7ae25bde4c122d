// Package processor renders experiment assignments into page HTML: Treatment
// markup first, then each experiment's DOM changes.
package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"

	processorconfig "github.com/jonesrussell/abedge/internal/config/processor"
	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/logger"
	"github.com/jonesrussell/abedge/internal/metrics"
	"github.com/jonesrussell/abedge/internal/mutation"
	"github.com/jonesrussell/abedge/internal/sanitize"
	"github.com/jonesrussell/abedge/internal/treatment"
)

var (
	// errLoggerRequired is returned when Params.Logger is nil
	errLoggerRequired = errors.New("logger is required")
	// errConfigRequired is returned when Params.Config is nil
	errConfigRequired = errors.New("config is required")
)

// Params holds the dependencies of a Processor.
type Params struct {
	Config  *processorconfig.Config
	Logger  logger.Interface
	Metrics *metrics.Metrics
	// Primary and Fallback override the backends built from Config.
	Primary  mutation.Applier
	Fallback mutation.Applier
}

// Processor applies experiments to HTML. It keeps no per-request state and is
// safe for concurrent use.
type Processor struct {
	config   *processorconfig.Config
	logger   logger.Interface
	metrics  *metrics.Metrics
	resolver *treatment.Resolver
	primary  mutation.Applier
	fallback mutation.Applier
	minifier *minify.M
}

// New creates a Processor. With the tree backend as primary the regex backend
// is used as fallback; with the regex backend there is no fallback.
func New(p Params) (*Processor, error) {
	if p.Logger == nil {
		return nil, errLoggerRequired
	}
	if p.Config == nil {
		return nil, errConfigRequired
	}
	if err := p.Config.Validate(); err != nil {
		return nil, fmt.Errorf("processor config: %w", err)
	}

	s := sanitize.New(p.Logger,
		sanitize.WithPolicy(p.Config.Policy()),
		sanitize.WithMetrics(p.Metrics),
	)
	opts := []mutation.Option{
		mutation.WithLogger(p.Logger),
		mutation.WithSanitizer(s),
		mutation.WithMetrics(p.Metrics),
	}

	proc := &Processor{
		config:   p.Config,
		logger:   p.Logger,
		metrics:  p.Metrics,
		resolver: treatment.NewResolver(p.Logger, p.Metrics),
		primary:  p.Primary,
		fallback: p.Fallback,
	}

	if proc.primary == nil {
		switch p.Config.Backend {
		case processorconfig.BackendRegex:
			proc.primary = mutation.NewRegexApplier(opts...)
		default:
			proc.primary = mutation.NewTreeApplier(opts...)
			if proc.fallback == nil {
				proc.fallback = mutation.NewRegexApplier(opts...)
			}
		}
	}

	if p.Config.MinifyOutput {
		proc.minifier = newMinifier()
	}

	return proc, nil
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &minhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	return m
}

// ProcessHTML resolves Treatment markup (when enabled) and then applies each
// experiment's changes in order. A failing experiment is skipped; changes of
// earlier experiments are kept. It never fails.
func (p *Processor) ProcessHTML(markup string, experiments []domain.ExperimentData) string {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		p.metrics.DocumentProcessed(elapsed)
		p.logger.WithDuration(elapsed).Debug("Processed document", "experiments", len(experiments))
	}()

	out := markup
	if p.config.EnableEmbeddedTags {
		out = p.resolveTags(out, experiments)
	}

	for _, exp := range experiments {
		if !exp.HasChanges() {
			continue
		}
		out = p.applyExperiment(out, exp)
	}

	if p.minifier != nil {
		out = p.minify(out)
	}

	return out
}

func (p *Processor) resolveTags(markup string, experiments []domain.ExperimentData) (out string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Treatment tag resolution panicked, leaving markup unchanged", "panic", fmt.Sprint(r))
			out = markup
		}
	}()
	return p.resolver.ResolveTags(markup, treatment.AssignmentsFrom(experiments))
}

// applyExperiment applies one experiment's batch, retrying the whole batch on
// the fallback backend against the pre-batch markup when the primary fails.
func (p *Processor) applyExperiment(markup string, exp domain.ExperimentData) string {
	log := p.logger.With("experiment", exp.Name)

	out, err := runBackend(p.primary, markup, exp.Changes)
	if err == nil {
		return out
	}

	if p.fallback == nil {
		log.Error("Failed to apply experiment changes, skipping experiment",
			"backend", p.primary.Name(),
			"error", err.Error(),
		)
		p.metrics.ExperimentFailed()
		return markup
	}

	log.Warn("Backend failed, retrying with fallback",
		"backend", p.primary.Name(),
		"fallback", p.fallback.Name(),
		"error", err.Error(),
	)
	p.metrics.BackendFallback()

	out, err = runBackend(p.fallback, markup, exp.Changes)
	if err != nil {
		log.WithError(err).Error("Fallback backend failed, skipping experiment",
			"backend", p.fallback.Name(),
		)
		p.metrics.ExperimentFailed()
		return markup
	}
	return out
}

func runBackend(a mutation.Applier, markup string, changes []domain.DOMChange) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", mutation.ErrBackendFailure, a.Name(), r)
		}
	}()
	return a.ApplyChanges(markup, changes)
}

func (p *Processor) minify(markup string) string {
	out, err := p.minifier.String("text/html", markup)
	if err != nil {
		p.logger.Warn("Failed to minify output, returning unminified HTML", "error", err.Error())
		return markup
	}
	return out
}
