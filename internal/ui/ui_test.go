package ui_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/game/combat"
	"github.com/cory-johannsen/battle/internal/ui"
)

type provider []combat.StatBlock

func (p provider) CurrentParty() ([]combat.StatBlock, error)   { return p, nil }
func (p provider) CurrentEnemies() ([]combat.StatBlock, error) { return p, nil }

func newSim(t *testing.T) (tcell.SimulationScreen, *ui.Screen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("")
	screen, err := ui.Wrap(sim)
	require.NoError(t, err)
	sim.SetSize(80, 24)
	t.Cleanup(screen.Close)
	return sim, screen
}

func screenText(sim tcell.SimulationScreen) string {
	cells, w, h := sim.GetContents()
	var sb strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteRune(c.Runes[0])
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

func newEncounter(t *testing.T, board *ui.Board, hostileHealth int) *combat.Encounter {
	t.Helper()
	enc, err := combat.NewEncounter(combat.Options{
		Party:        provider{{Name: "Hero", CurrentHealth: 10, MaxHealth: 10, Strength: 5, Level: 2}},
		Enemies:      provider{{Name: "Slime", CurrentHealth: hostileHealth, MaxHealth: hostileHealth, Strength: 1, Level: 1}},
		PartyAnchors: []combat.Anchor{{X: 2, Y: 1}},
		EnemyAnchors: []combat.Anchor{{X: 40, Y: 1}},
		Spawner:      board,
		Pacer:        combat.NoDelayPacer{},
		Listener:     board.Listen,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Start(context.Background()))
	return enc
}

func TestPanel_Bar(t *testing.T) {
	p := &ui.Panel{}
	p.Initialize(10, 10, 3)
	assert.Equal(t, "[##########]", p.Bar())
	assert.Equal(t, "Lvl: 3", p.LevelText())

	p.SetHealth(5)
	assert.Equal(t, "[#####-----]", p.Bar())
	p.SetHealth(1)
	assert.Equal(t, "[#---------]", p.Bar())
	p.SetHealth(-1)
	assert.Equal(t, "[----------]", p.Bar())
	assert.Equal(t, -1, p.Health())
}

func TestBoard_SpawnOutsideScreen(t *testing.T) {
	_, screen := newSim(t)
	board := ui.NewBoard(screen)
	_, err := board.Spawn("slime", combat.Anchor{X: 200, Y: 1}, combat.SideHostile)
	assert.Error(t, err)
}

func TestBoard_RendersPanelsAndMenu(t *testing.T) {
	sim, screen := newSim(t)
	board := ui.NewBoard(screen)
	enc := newEncounter(t, board, 40)
	board.Attach(enc)
	board.Render()

	text := screenText(sim)
	assert.Contains(t, text, "Hero")
	assert.Contains(t, text, "Slime")
	assert.Contains(t, text, "Lvl: 2")
	assert.Contains(t, text, "Hero attacks: [1] Slime")
	require.Len(t, board.Panels(), 2)
}

func TestBoard_HighlightsActingPlayerByID(t *testing.T) {
	_, screen := newSim(t)
	board := ui.NewBoard(screen)
	hero := combat.StatBlock{Name: "Hero", CurrentHealth: 10, MaxHealth: 10, Strength: 1, Level: 1}
	enc, err := combat.NewEncounter(combat.Options{
		Party:        provider{hero, hero},
		Enemies:      provider{{Name: "Ogre", CurrentHealth: 100, MaxHealth: 100, Strength: 1, Level: 1}},
		PartyAnchors: []combat.Anchor{{X: 2, Y: 1}, {X: 2, Y: 5}},
		EnemyAnchors: []combat.Anchor{{X: 40, Y: 1}},
		Spawner:      board,
		Pacer:        combat.NoDelayPacer{},
		Listener:     board.Listen,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Start(context.Background()))
	board.Attach(enc)

	board.Render()
	panels := board.Panels()
	require.Len(t, panels, 3)
	assert.True(t, panels[0].Selected())
	assert.False(t, panels[1].Selected(), "a namesake is not the acting player")
	assert.False(t, panels[2].Selected())

	require.NoError(t, enc.SubmitAttack(context.Background(), 0))
	board.Render()
	assert.False(t, panels[0].Selected())
	assert.True(t, panels[1].Selected())
}

func TestBoard_LogsAttacks(t *testing.T) {
	_, screen := newSim(t)
	board := ui.NewBoard(screen)
	enc := newEncounter(t, board, 40)
	board.Attach(enc)

	require.NoError(t, enc.SubmitAttack(context.Background(), 0))
	assert.Contains(t, board.Log(), "Hero attacked Slime for 5 damage.")
	assert.Equal(t, 35, board.Panels()[1].Health())
}

func TestBoard_LogKeepsLastLines(t *testing.T) {
	_, screen := newSim(t)
	board := ui.NewBoard(screen)
	for i := 0; i < 20; i++ {
		board.Logf("line %d", i)
	}
	log := board.Log()
	require.Len(t, log, 8)
	assert.Equal(t, "line 19", log[7])
}

func TestApp_AttackToVictory(t *testing.T) {
	sim, screen := newSim(t)
	board := ui.NewBoard(screen)
	enc := newEncounter(t, board, 4)
	app := ui.NewApp(screen, board, enc, zap.NewNop())

	sim.InjectKey(tcell.KeyRune, '1', tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, combat.PhaseWon, enc.Phase())
	assert.Contains(t, board.Log(), "Encounter over: victory.")
}

func TestApp_InvalidChoiceIsLogged(t *testing.T) {
	sim, screen := newSim(t)
	board := ui.NewBoard(screen)
	enc := newEncounter(t, board, 40)
	app := ui.NewApp(screen, board, enc, zap.NewNop())

	sim.InjectKey(tcell.KeyRune, '5', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	assert.ErrorIs(t, app.Run(context.Background()), ui.ErrQuit)
	assert.Equal(t, combat.PhaseSelection, enc.Phase())
	require.NotEmpty(t, board.Log())
	assert.Contains(t, board.Log()[len(board.Log())-1], "invalid target")
}

func TestApp_Run(t *testing.T) {
	sim, screen := newSim(t)
	board := ui.NewBoard(screen)
	enc := newEncounter(t, board, 40)
	app := ui.NewApp(screen, board, enc, zap.NewNop())

	sim.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, combat.PhaseRun, enc.Phase())
}

func TestApp_Escape(t *testing.T) {
	sim, screen := newSim(t)
	board := ui.NewBoard(screen)
	enc := newEncounter(t, board, 40)
	app := ui.NewApp(screen, board, enc, zap.NewNop())

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	assert.ErrorIs(t, app.Run(context.Background()), ui.ErrQuit)
}
