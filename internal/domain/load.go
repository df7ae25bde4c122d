package domain

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadExperiments reads experiments from a YAML or JSON file.
func LoadExperiments(path string) ([]ExperimentData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open experiments file %s: %w", path, err)
	}
	defer f.Close()

	return DecodeExperiments(f)
}

// DecodeExperiments decodes experiments from YAML or JSON. Both a bare list and an
// object with an "experiments" key are accepted.
func DecodeExperiments(r io.Reader) ([]ExperimentData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read experiments: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var list []ExperimentData
	if listErr := yaml.Unmarshal(trimmed, &list); listErr == nil {
		return list, nil
	}

	var file ExperimentsFile
	if fileErr := yaml.Unmarshal(trimmed, &file); fileErr != nil {
		return nil, fmt.Errorf("parse experiments: %w", fileErr)
	}
	return file.Experiments, nil
}
