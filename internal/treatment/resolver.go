package treatment

import (
	"strings"

	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/logger"
	"github.com/jonesrussell/abedge/internal/metrics"
)

// Assignment is the variant selection for one experiment.
type Assignment struct {
	// Treatment is the assigned index; nil means unassigned.
	Treatment *int
	// Mapping maps variant names to treatment indexes.
	Mapping map[string]int
}

// Assignments maps experiment names to their assignment.
type Assignments map[string]Assignment

// AssignmentsFrom builds the name lookup used to resolve tags. When an
// experiment names its variant, the mapping {variant: treatment} is added so
// tags using named variants can be matched.
func AssignmentsFrom(experiments []domain.ExperimentData) Assignments {
	out := make(Assignments, len(experiments))
	for _, exp := range experiments {
		a := Assignment{}
		if idx, ok := exp.TreatmentIndex(); ok {
			a.Treatment = &idx
			if v := strings.TrimSpace(exp.Variant); v != "" {
				a.Mapping = map[string]int{v: idx}
			}
		}
		out[exp.Name] = a
	}
	return out
}

// Resolver replaces Treatment blocks with the content of the selected variant.
type Resolver struct {
	logger  logger.Interface
	metrics *metrics.Metrics
}

// NewResolver creates a Resolver. m may be nil.
func NewResolver(log logger.Interface, m *metrics.Metrics) *Resolver {
	return &Resolver{logger: log, metrics: m}
}

// ResolveTags resolves every valid Treatment block in markup. Blocks that fail
// validation are left in place and logged. Each block is replaced by exact
// substring, so two blocks sharing a name are each resolved once.
func (r *Resolver) ResolveTags(markup string, assignments Assignments) string {
	tags := Parse(markup)
	if len(tags) == 0 {
		return markup
	}

	var b strings.Builder
	b.Grow(len(markup))
	cursor := 0

	for _, tag := range tags {
		idx := strings.Index(markup[cursor:], tag.FullMatch)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		b.WriteString(markup[cursor:start])
		cursor = start + len(tag.FullMatch)

		if err := ValidateTag(tag); err != nil {
			r.logger.Error("Invalid treatment tag, leaving markup unchanged",
				"experiment", tag.Name,
				"error", err.Error(),
			)
			b.WriteString(tag.FullMatch)
			continue
		}

		a := assignments[tag.Name]
		v, step := SelectVariant(tag, a.Treatment, a.Mapping)
		r.metrics.TreatmentTagResolved(string(step))

		if v == nil {
			r.logger.Debug("No variant matched treatment tag",
				"experiment", tag.Name,
				"step", string(step),
			)
		} else {
			r.logger.Debug("Resolved treatment tag",
				"experiment", tag.Name,
				"variant", v.Variant.String(),
				"step", string(step),
			)
		}

		b.WriteString(Render(tag, v))
	}

	b.WriteString(markup[cursor:])
	return b.String()
}
