package domain

// ExperimentData is the per-request view of one active experiment.
type ExperimentData struct {
	// Name is the experiment name referenced by treatment tags.
	Name string `json:"name" validate:"required" yaml:"name"`
	// Treatment is the assigned variant index. Nil or negative means unassigned.
	Treatment *int `json:"treatment,omitempty" yaml:"treatment,omitempty"`
	// Variant is the optional assigned variant name.
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	// Changes are the structural mutations for the assigned variant.
	Changes []DOMChange `json:"changes,omitempty" validate:"dive" yaml:"changes,omitempty"`
}

// TreatmentIndex returns the assigned treatment index and whether one is assigned.
func (e ExperimentData) TreatmentIndex() (int, bool) {
	if e.Treatment == nil || *e.Treatment < 0 {
		return -1, false
	}
	return *e.Treatment, true
}

// HasChanges reports whether the experiment carries structural mutations.
func (e ExperimentData) HasChanges() bool {
	return len(e.Changes) > 0
}

// Assigned returns an ExperimentData with the given treatment index set.
func Assigned(name string, treatment int, changes ...DOMChange) ExperimentData {
	return ExperimentData{
		Name:      name,
		Treatment: &treatment,
		Changes:   changes,
	}
}

// ExperimentsFile is the on-disk shape of a list of experiments.
type ExperimentsFile struct {
	Experiments []ExperimentData `json:"experiments" yaml:"experiments"`
}
