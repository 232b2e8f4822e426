package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML parameter file and applies it. Keys absent from the
// file keep their current values. The file is applied as a whole: an unknown
// key or invalid value leaves the registry untouched.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read parameter file: %w", err)
	}

	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}
	if err := r.Apply(values); err != nil {
		return fmt.Errorf("failed to apply parameter file %s: %w", path, err)
	}
	return nil
}

// SaveFile writes every parameter to a YAML file in table order, each key
// preceded by its description.
func (r *Registry) SaveFile(path string) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, pv := range r.Params() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: pv.Name, HeadComment: pv.Description}
		val := &yaml.Node{}
		if err := val.Encode(pv.Value); err != nil {
			return fmt.Errorf("failed to encode %s: %w", pv.Name, err)
		}
		doc.Content = append(doc.Content, key, val)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write parameter file: %w", err)
	}
	return nil
}
