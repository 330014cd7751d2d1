// Package presets loads named command templates from a YAML file so
// operators can submit recurring commands by name.
package presets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wherecode/command-console/internal/hierarchy"
)

// Preset is one named command template.
type Preset struct {
	Name             string                  `yaml:"name" json:"name"`
	Text             string                  `yaml:"text" json:"text"`
	Source           hierarchy.CommandSource `yaml:"source,omitempty" json:"source,omitempty"`
	RequestedBy      string                  `yaml:"requested_by,omitempty" json:"requested_by,omitempty"`
	RequiresApproval bool                    `yaml:"requires_approval,omitempty" json:"requires_approval"`
}

type file struct {
	Presets []Preset `yaml:"presets"`
}

// Store holds the loaded presets, keyed by name.
type Store struct {
	ordered []Preset
	byName  map[string]Preset
}

// Load reads a presets file. Duplicate names and empty texts are rejected;
// an empty path yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{byName: make(map[string]Preset)}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing presets file: %w", err)
	}

	for _, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset without a name in %s", path)
		}
		if p.Text == "" {
			return nil, fmt.Errorf("preset %q has no command text", p.Name)
		}
		if _, dup := s.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		s.byName[p.Name] = p
		s.ordered = append(s.ordered, p)
	}
	return s, nil
}

// Get returns a preset by name.
func (s *Store) Get(name string) (Preset, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// All returns the presets in file order.
func (s *Store) All() []Preset {
	out := make([]Preset, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of loaded presets.
func (s *Store) Len() int {
	return len(s.ordered)
}
