package game

import (
	"sync/atomic"
	"time"
)

// reconnectWindow is the grace timer of one disconnected participant. The
// grace period is measured from session start, not from the disconnect:
// whoever drops late in a long session gets little or no grace.
//
// Window expiry races with an explicit reconnect. Whoever wins the claim
// proceeds; the loser backs off, so exactly one of {reconnect cancelled the
// window, timeout was applied} happens per participant.
type reconnectWindow struct {
	username string
	deadline time.Time
	claimed  atomic.Bool
	task     Task
}

func (w *reconnectWindow) claim() bool {
	return w.claimed.CompareAndSwap(false, true)
}

func (w *reconnectWindow) cancel() {
	if w.task != nil {
		w.task.Cancel()
	}
}

// openReconnectWindowLocked schedules the expiry for a participant that just
// disconnected during active play. Caller holds g.mu.
func (g *Game) openReconnectWindowLocked(username string, remaining time.Duration) {
	w := &reconnectWindow{
		username: username,
		deadline: g.now().Add(remaining),
	}
	g.windows[username] = w
	w.task = g.deps.Scheduler.After(remaining, func() {
		g.expireReconnectWindow(w)
	})
}

// reconnectRemainingLocked computes the grace left at this instant:
// maxReconnectMinutes counted from the session start time.
func (g *Game) reconnectRemainingLocked() time.Duration {
	minutes := g.deps.Arena.MaxReconnectMinutes()
	elapsed := time.Duration(g.now().UnixMilli()-g.startTime) * time.Millisecond
	remaining := time.Duration(minutes)*time.Minute - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (g *Game) expireReconnectWindow(w *reconnectWindow) {
	if !w.claim() {
		// A reconnect got here first; this timeout is stale.
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.windows, w.username)

	// Windows only matter while the session is active; if it ended in the
	// meantime the end-of-game sequence owns the remaining cleanup.
	if g.status != StatusInGame {
		return
	}
	g.handleReconnectTimeoutLocked(w.username, false)
}
