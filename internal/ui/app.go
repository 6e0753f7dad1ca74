package ui

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/game/combat"
)

// ErrQuit is returned by Run when the user quits before the encounter ends.
var ErrQuit = errors.New("quit")

// App is the interactive encounter loop: keys drive the selection menu,
// the board redraws on every engine event.
type App struct {
	screen *Screen
	board  *Board
	enc    *combat.Encounter
	logger *zap.Logger
}

// NewApp wires the loop.
//
// Precondition: all arguments must be non-nil; enc must already be started.
func NewApp(screen *Screen, board *Board, enc *combat.Encounter, logger *zap.Logger) *App {
	board.Attach(enc)
	return &App{screen: screen, board: board, enc: enc, logger: logger}
}

// Run handles input until the encounter ends and a key is pressed, or the user quits.
//
// Postcondition: returns ErrQuit on quit, the engine error if the encounter
// failed, or nil after a terminal phase.
func (a *App) Run(ctx context.Context) error {
	a.board.Render()
	for {
		if a.enc.Phase().Terminal() {
			a.board.Render()
			a.waitForKey()
			return a.enc.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch ev := a.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if quit := a.handleKey(ctx, ev); quit {
				return ErrQuit
			}
		case *tcell.EventResize:
			a.screen.Sync()
			a.board.Render()
		case nil:
			return ErrQuit
		}
	}
}

// handleKey processes one key and reports whether the user asked to quit.
func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r == 'q' || r == 'Q':
			return true
		case r == 'r' || r == 'R':
			a.report(a.enc.SubmitRun(ctx))
		case r >= '1' && r <= '9':
			a.report(a.enc.SubmitAttack(ctx, int(r-'1')))
		}
	}
	return false
}

func (a *App) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, combat.ErrInvalidTarget) || errors.Is(err, combat.ErrWrongPhase) {
		a.board.Logf("%s", err.Error())
		a.board.Render()
		return
	}
	a.logger.Error("encounter error", zap.Error(err))
}

func (a *App) waitForKey() {
	for {
		switch a.screen.PollEvent().(type) {
		case *tcell.EventKey, nil:
			return
		}
	}
}
