package preset

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML loads a preset YAML file and applies it on top of the defaults.
// Unknown keys are rejected.
func LoadYAML(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := LoadYAMLFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	return c, nil
}

// LoadYAMLFromReader decodes a YAML preset from r.
func LoadYAMLFromReader(r io.Reader) (*Config, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	c := NewConfig()
	if err := ApplyFile(c, &file); err != nil {
		return nil, err
	}
	return c, nil
}
