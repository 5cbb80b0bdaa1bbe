package game

import (
	"log"

	game_constants "Skirmish/constants/game"
)

// countdown drives the pre-game ticker. It only exists while the session is
// waiting for players; the task is cancelled exactly once on the transition
// to in_game (re-cancelling is a no-op).
type countdown struct {
	task      Task
	remaining int
	full      int
}

// startCountdownLocked wires the periodic tick. Caller holds g.mu.
func (g *Game) startCountdownLocked() {
	if g.countdown != nil {
		return
	}
	g.countdown = &countdown{
		remaining: g.cfg.CountdownSeconds,
		full:      g.cfg.CountdownSeconds,
	}
	g.countdown.task = g.deps.Scheduler.Every(game_constants.CountdownTickInterval, g.countdownTick)
	log.Printf("[COUNTDOWN] Started for session %s (%ds, min %d players)",
		g.cfg.CodeName, g.cfg.CountdownSeconds, g.cfg.MinPlayers)
}

// stopCountdownLocked cancels the tick. Safe to call more than once.
func (g *Game) stopCountdownLocked() {
	if g.countdown == nil {
		return
	}
	g.countdown.task.Cancel()
	g.countdown = nil
}

func (g *Game) countdownTick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusWaitingForPlayers || g.countdown == nil {
		return
	}

	// Not enough players yet: hold the count at the top.
	if g.registry.ConnectedCount() < g.cfg.MinPlayers {
		if g.countdown.remaining != g.countdown.full {
			log.Printf("[COUNTDOWN] Session %s lost players, resetting countdown", g.cfg.CodeName)
		}
		g.countdown.remaining = g.countdown.full
		return
	}

	g.countdown.remaining--
	g.deps.Messenger.NotifyCountdown(g.countdown.remaining)

	if g.countdown.remaining <= 0 {
		if err := g.startGameLocked(); err != nil {
			log.Printf("[COUNTDOWN-ERROR] Auto-start failed: %v", err)
		}
	}
}
