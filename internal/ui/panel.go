package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/cory-johannsen/battle/internal/game/combat"
)

const (
	levelPrefix = "Lvl: "
	barWidth    = 10
)

// Panel is the on-screen counterpart of one battler: a health bar and level
// label drawn at its anchor. It implements combat.Presentation.
type Panel struct {
	Template string
	Anchor   combat.Anchor
	Side     combat.Side

	maxHealth int
	health    int
	level     int
	attacking bool
	hit       bool
	selected  bool
}

// Initialize sets the starting values shown on the panel.
func (p *Panel) Initialize(maxHealth, currentHealth, level int) {
	p.maxHealth = maxHealth
	p.health = currentHealth
	p.level = level
}

// SetHealth updates the displayed health.
func (p *Panel) SetHealth(currentHealth int) { p.health = currentHealth }

// PlayAttackAnimation marks the panel as attacking until the next frame is cleared.
func (p *Panel) PlayAttackAnimation() { p.attacking = true }

// PlayHitAnimation marks the panel as hit until the next frame is cleared.
func (p *Panel) PlayHitAnimation() { p.hit = true }

// Health returns the displayed health.
func (p *Panel) Health() int { return p.health }

// Selected reports whether the last frame highlighted this panel as the acting player.
func (p *Panel) Selected() bool { return p.selected }

// LevelText returns the level label, e.g. "Lvl: 3".
func (p *Panel) LevelText() string { return fmt.Sprintf("%s%d", levelPrefix, p.level) }

// Bar renders the health bar. Health below zero draws as empty.
//
// Postcondition: len(result) == barWidth + 2.
func (p *Panel) Bar() string {
	filled := 0
	if p.maxHealth > 0 && p.health > 0 {
		filled = (p.health*barWidth + p.maxHealth - 1) / p.maxHealth
		if filled > barWidth {
			filled = barWidth
		}
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}

func (p *Panel) clearFlash() {
	p.attacking = false
	p.hit = false
}

func (p *Panel) draw(s *Screen, name string, selected bool) {
	p.selected = selected
	x, y := int(p.Anchor.X), int(p.Anchor.Y)
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	if p.Side == combat.SideHostile {
		style = tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	if selected {
		style = style.Bold(true).Underline(true)
	}
	marker := " "
	switch {
	case p.hit:
		marker = "*"
	case p.attacking:
		marker = ">"
		if p.Side == combat.SideHostile {
			marker = "<"
		}
	}
	s.DrawText(x, y, marker+name, style)
	barStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	if p.maxHealth > 0 && p.health*4 <= p.maxHealth {
		barStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}
	next := s.DrawText(x+1, y+1, p.Bar(), barStyle)
	s.DrawText(next+1, y+1, fmt.Sprintf("%d/%d", p.health, p.maxHealth), style)
	s.DrawText(x+1, y+2, p.LevelText(), tcell.StyleDefault.Foreground(tcell.ColorGray))
}
