package roster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/battle/internal/game/combat"
)

// Member is one party member record. CurrentHealth is optional: absent
// means full health, 0 means knocked out.
type Member struct {
	Name          string `yaml:"name"`
	CurrentHealth *int   `yaml:"current_health"`
	MaxHealth     int    `yaml:"max_health"`
	Initiative    int    `yaml:"initiative"`
	Strength      int    `yaml:"strength"`
	Level         int    `yaml:"level"`
	Presentation  string `yaml:"presentation"`
}

// StatBlock converts the member into an engine roster record.
func (m Member) StatBlock() combat.StatBlock {
	current := m.MaxHealth
	if m.CurrentHealth != nil {
		current = *m.CurrentHealth
	}
	tmpl := m.Presentation
	if tmpl == "" {
		tmpl = "party"
	}
	return combat.StatBlock{
		Name:          m.Name,
		CurrentHealth: current,
		MaxHealth:     m.MaxHealth,
		Initiative:    m.Initiative,
		Strength:      m.Strength,
		Level:         m.Level,
		Template:      tmpl,
	}
}

type partyFile struct {
	Members []Member `yaml:"members"`
}

// Party is the party roster provider.
type Party struct {
	members []Member
}

// LoadPartyFromBytes parses and validates a party document.
//
// Postcondition: every member converts to a valid stat block, or an error is returned.
func LoadPartyFromBytes(data []byte) (*Party, error) {
	var pf partyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing party YAML: %w", err)
	}
	for i, m := range pf.Members {
		if err := m.StatBlock().Validate(); err != nil {
			return nil, fmt.Errorf("members[%d]: %w", i, err)
		}
	}
	return &Party{members: pf.Members}, nil
}

// LoadParty reads the party file at path.
func LoadParty(path string) (*Party, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading party file %q: %w", path, err)
	}
	p, err := LoadPartyFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return p, nil
}

// CurrentParty returns the members as stat blocks in file order.
func (p *Party) CurrentParty() ([]combat.StatBlock, error) {
	out := make([]combat.StatBlock, len(p.members))
	for i, m := range p.members {
		out[i] = m.StatBlock()
	}
	return out, nil
}
