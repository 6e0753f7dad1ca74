package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/cory-johannsen/battle/internal/game/combat"
)

// logLines is how many combat log lines stay on screen.
const logLines = 8

// Board lays out an encounter: one Panel per battler, the selection menu,
// and the combat log. It implements combat.Spawner and consumes engine events.
type Board struct {
	screen *Screen
	enc    *combat.Encounter
	panels []*Panel
	log    []string
}

// NewBoard creates a board drawing to screen.
//
// Precondition: screen must be non-nil.
func NewBoard(screen *Screen) *Board {
	return &Board{screen: screen}
}

// Attach binds the encounter the board renders.
func (b *Board) Attach(enc *combat.Encounter) { b.enc = enc }

// Spawn creates a panel at anchor.
func (b *Board) Spawn(template string, anchor combat.Anchor, side combat.Side) (combat.Presentation, error) {
	w, h := b.screen.Size()
	if int(anchor.X) < 0 || int(anchor.Y) < 0 || int(anchor.X) >= w || int(anchor.Y) >= h {
		return nil, fmt.Errorf("anchor (%v, %v) outside %dx%d screen", anchor.X, anchor.Y, w, h)
	}
	p := &Panel{Template: template, Anchor: anchor, Side: side}
	b.panels = append(b.panels, p)
	return p, nil
}

// Panels returns every spawned panel in spawn order.
func (b *Board) Panels() []*Panel { return b.panels }

// Log returns the visible combat log, oldest first.
func (b *Board) Log() []string { return append([]string(nil), b.log...) }

// Logf appends a line to the combat log.
func (b *Board) Logf(format string, args ...any) {
	b.log = append(b.log, fmt.Sprintf(format, args...))
	if len(b.log) > logLines {
		b.log = b.log[len(b.log)-logLines:]
	}
}

// Listen records an engine event in the log and redraws.
func (b *Board) Listen(ev combat.Event) {
	switch e := ev.(type) {
	case combat.EventAttack:
		b.Logf("%s", e.Text())
	case combat.EventDefeated:
		b.Logf("%s", e.Text())
	case combat.EventNotice:
		b.Logf("%s", e.Message)
	case combat.EventEncounterEnd:
		b.Logf("Encounter over: %s.", outcomeText(e.Outcome))
	case combat.EventRemoved, combat.EventRetargeted, combat.EventPhaseChanged:
	}
	b.Render()
	for _, p := range b.panels {
		p.clearFlash()
	}
}

// Render draws the whole board and flushes it.
func (b *Board) Render() {
	b.screen.Clear()
	if b.enc == nil {
		b.screen.Show()
		return
	}
	acting := b.enc.CurrentActingPlayerName()
	actingID := b.enc.CurrentActingPlayerID()
	for _, bt := range b.enc.Arena().All() {
		p, ok := bt.Presentation.(*Panel)
		if !ok {
			continue
		}
		p.draw(b.screen, bt.Name, actingID != "" && bt.ID == actingID)
	}

	_, h := b.screen.Size()
	menuY := h - logLines - 3
	header := tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	plain := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	b.screen.DrawText(0, menuY, fmt.Sprintf("Round %d  %s", b.enc.Round(), b.enc.Phase()), header)
	if acting != "" {
		x := b.screen.DrawText(0, menuY+1, acting+" attacks: ", plain)
		for i, name := range b.enc.AliveHostileNames() {
			x = b.screen.DrawText(x, menuY+1, fmt.Sprintf("[%d] %s  ", i+1, name), plain)
		}
		b.screen.DrawText(x, menuY+1, "[r] Run  [q] Quit", plain)
	}
	for i, line := range b.log {
		b.screen.DrawText(0, menuY+2+i, line, plain)
	}
	b.screen.Show()
}

func outcomeText(o combat.Outcome) string {
	switch o {
	case combat.OutcomeWon:
		return "victory"
	case combat.OutcomeLost:
		return "defeat"
	default:
		return "the party ran"
	}
}
