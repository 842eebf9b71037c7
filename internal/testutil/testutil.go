// Package testutil provides shared test helpers.
package testutil

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one end-to-end script case loaded from a YAML manifest.
type Scenario struct {
	Name        string            `yaml:"name"`
	Source      string            `yaml:"source"`
	Imports     map[string]string `yaml:"imports,omitempty"`
	Output      string            `yaml:"output,omitempty"`
	Result      string            `yaml:"result,omitempty"`
	ErrCode     string            `yaml:"errCode,omitempty"`
	ErrContains string            `yaml:"errContains,omitempty"`
}

// LoadScenarios reads a YAML manifest holding a list of scenarios.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, sc := range scenarios {
		if sc.Name == "" {
			return nil, fmt.Errorf("%s: scenario %d has no name", path, i)
		}
		if sc.Source == "" {
			return nil, fmt.Errorf("%s: scenario %q has no source", path, sc.Name)
		}
	}
	return scenarios, nil
}

// MapImporter resolves import paths from an in-memory map.
type MapImporter map[string]string

// Resolve returns the source registered for path.
func (m MapImporter) Resolve(path string) (string, error) {
	src, ok := m[path]
	if !ok {
		return "", fmt.Errorf("no such import %q", path)
	}
	return src, nil
}
