package game

import "time"

/*
 * Collaborator contracts consumed by the session core. The core never does
 * network or disk I/O itself; everything side-effectful goes through these
 * interfaces. Implementations live in services/arena, services/socket_io and
 * services/sync and are injected in main.go. Collaborators must not call
 * back into the Game synchronously.
 */

// ArenaManager is the capacity/server-pool collaborator. Refresh is invoked
// on every status mutation so the advertised slot counts stay current.
type ArenaManager interface {
	Refresh()
	IsReconnectAllowed(username string) bool
	MaxReconnectMinutes() int
	Kick(username string, reason string)
}

// Messenger renders and delivers user-facing notifications.
type Messenger interface {
	NotifyGameStart()
	NotifyCountdown(secondsLeft int)
	NotifyJoin(username string)
	NotifyDisconnected(username string, remaining time.Duration)
	NotifyQuit(username string)
	NotifyReconnected(username string)
	NotifyReconnectTimeout(username string)
	// HideModerator tells the given viewers to stop rendering the moderator.
	// One-time broadcast on moderator login, not persisted state.
	HideModerator(moderator string, viewers []string)
}

// Economy accumulates currency and statistics into persistent profiles.
// Credit calls work for participants that never joined this session
// (offline == true).
type Economy interface {
	CreditCoins(username string, amount int, reason string, offline bool)
	CreditStars(username string, amount int, reason string, offline bool)
	IncrementStat(username string, stat string, amount int)
	FinalizeStats()
}

// PayoutTemplate renders the end-of-game earnings summary for one player.
type PayoutTemplate interface {
	ApplyEndOfGamePayout(username string, coins int, stars int)
}

// ProcessHost terminates the hosting game-server process once the session
// is fully wound down.
type ProcessHost interface {
	TerminateProcess()
}
