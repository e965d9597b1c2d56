package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a field, turning `default:` into a Literal and
// `generate: name` into the registered Generator.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	type plain Field
	var aux struct {
		plain    `yaml:",inline"`
		Default  any    `yaml:"default"`
		Generate string `yaml:"generate"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*f = Field(aux.plain)

	switch {
	case aux.Generate != "" && aux.Default != nil:
		return fmt.Errorf("schema: line %d: field sets both default and generate", node.Line)
	case aux.Generate != "":
		g, err := LookupGenerator(aux.Generate)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		f.Default = g
	case aux.Default != nil:
		f.Default = Value(aux.Default)
	}
	return nil
}

// Parse decodes a YAML (or JSON) schema document.
func Parse(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	if s == nil {
		s = Schema{}
	}
	for name, f := range s {
		if f == nil {
			s[name] = &Field{}
		}
	}
	return s, nil
}

// ParseFile reads and decodes a schema file.
func ParseFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
