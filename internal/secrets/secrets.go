// Package secrets loads credentials once at start-up. Values come from an
// optional YAML (or JSON) file; names missing from the file fall back to
// the process environment.
package secrets

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store is an immutable name -> value lookup.
type Store struct {
	values map[string]string
	getenv func(string) string
}

// Load reads the secrets file at path. An empty path yields a Store that
// only consults the environment.
func Load(path string) (*Store, error) {
	s := &Store{values: map[string]string{}, getenv: os.Getenv}
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets %s: %w", path, err)
	}
	values, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse secrets %s: %w", path, err)
	}
	s.values = values
	return s, nil
}

// Parse decodes a flat YAML or JSON object. Scalars keep the exact text
// written in the file; nested values are rejected.
func Parse(b []byte) (map[string]string, error) {
	out := map[string]string{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("secrets must be a flat map of scalars: %w", err)
	}
	return out, nil
}

// Get returns the named secret, falling back to the environment variable
// of the same name.
func (s *Store) Get(name string) string {
	if s == nil {
		return os.Getenv(name)
	}
	if v, ok := s.values[name]; ok {
		return v
	}
	return s.getenv(name)
}
