// Package roster supplies the two rosters an encounter starts from: the
// party, loaded from a YAML file, and the enemy group, generated from YAML
// templates scaled by level.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnemyTemplate is a reusable enemy archetype loaded from YAML.
type EnemyTemplate struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	BaseHealth     int    `yaml:"base_health"`
	BaseStrength   int    `yaml:"base_strength"`
	BaseInitiative int    `yaml:"base_initiative"`
	// Presentation names the visual template spawned for this enemy.
	// Empty falls back to ID.
	Presentation string `yaml:"presentation"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, BaseHealth >= 1,
// and BaseStrength and BaseInitiative are >= 0; returns an error on the first
// violation otherwise.
func (t *EnemyTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.BaseHealth < 1 {
		return fmt.Errorf("enemy template %q: base_health must be >= 1", t.ID)
	}
	if t.BaseStrength < 0 {
		return fmt.Errorf("enemy template %q: base_strength must be >= 0", t.ID)
	}
	if t.BaseInitiative < 0 {
		return fmt.Errorf("enemy template %q: base_initiative must be >= 0", t.ID)
	}
	return nil
}

// PresentationTemplate returns the visual template name.
func (t *EnemyTemplate) PresentationTemplate() string {
	if t.Presentation != "" {
		return t.Presentation
	}
	return t.ID
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Postcondition: Returns a validated *EnemyTemplate, or an error.
func LoadTemplateFromBytes(data []byte) (*EnemyTemplate, error) {
	var tmpl EnemyTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*EnemyTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var templates []*EnemyTemplate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
