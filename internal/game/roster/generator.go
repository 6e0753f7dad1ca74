package roster

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/battle/internal/config"
	"github.com/cory-johannsen/battle/internal/game/combat"
)

// LevelModifier is the per-level growth applied to every base stat.
const LevelModifier = 0.5

// ErrUnknownEnemy is returned when generating an enemy with no template.
var ErrUnknownEnemy = errors.New("unknown enemy")

// Generator scales enemy templates to a level.
type Generator struct {
	byName map[string]*EnemyTemplate
	names  []string
}

// NewGenerator indexes templates by display name.
//
// Postcondition: Returns an error if two templates share a name.
func NewGenerator(templates []*EnemyTemplate) (*Generator, error) {
	g := &Generator{byName: make(map[string]*EnemyTemplate, len(templates))}
	for _, t := range templates {
		if _, dup := g.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate enemy template name %q", t.Name)
		}
		g.byName[t.Name] = t
		g.names = append(g.names, t.Name)
	}
	return g, nil
}

// Names returns the known enemy names in load order.
func (g *Generator) Names() []string {
	return append([]string(nil), g.names...)
}

// Scale applies the level formula base + base*0.5*level, rounding half to even.
func Scale(base, level int) int {
	b := float64(base)
	return int(math.RoundToEven(b + b*LevelModifier*float64(level)))
}

// Generate produces the stat block for name at level, at full health.
//
// Precondition: level >= 0.
// Postcondition: CurrentHealth == MaxHealth == Scale(BaseHealth, level);
// returns an error wrapping ErrUnknownEnemy when no template matches.
func (g *Generator) Generate(name string, level int) (combat.StatBlock, error) {
	t, ok := g.byName[name]
	if !ok {
		return combat.StatBlock{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownEnemy, name, strings.Join(g.Names(), ", "))
	}
	if level < 0 {
		return combat.StatBlock{}, fmt.Errorf("enemy %q: level must be >= 0, got %d", name, level)
	}
	health := Scale(t.BaseHealth, level)
	return combat.StatBlock{
		Name:          t.Name,
		CurrentHealth: health,
		MaxHealth:     health,
		Strength:      Scale(t.BaseStrength, level),
		Initiative:    Scale(t.BaseInitiative, level),
		Level:         level,
		Template:      t.PresentationTemplate(),
	}, nil
}

// EnemyGroup generates the configured encounter group on each call.
type EnemyGroup struct {
	gen    *Generator
	spawns []config.EncounterSpawn
}

// NewEnemyGroup binds a generator to the spawn list.
func NewEnemyGroup(gen *Generator, spawns []config.EncounterSpawn) *EnemyGroup {
	return &EnemyGroup{gen: gen, spawns: spawns}
}

// CurrentEnemies generates one stat block per spawn entry, in order.
func (e *EnemyGroup) CurrentEnemies() ([]combat.StatBlock, error) {
	out := make([]combat.StatBlock, 0, len(e.spawns))
	for i, s := range e.spawns {
		sb, err := e.gen.Generate(s.Name, s.Level)
		if err != nil {
			return nil, fmt.Errorf("encounter[%d]: %w", i, err)
		}
		out = append(out, sb)
	}
	return out, nil
}
