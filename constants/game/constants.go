package game_constants

import "time"

// Pre-game countdown defaults. The countdown only runs while the session is
// waiting for players and resets whenever the connected count drops below
// the minimum.
const CountdownSeconds = 30
const CountdownTickInterval = 1 * time.Second
const MinPlayersToStart = 2

// End-of-game sequence delays, measured from the moment the session is
// marked finished. Payouts first, then the forced disconnect of whoever is
// still connected, then the process goes down.
const (
	PayoutDelay   = 3 * time.Second
	KickDelay     = 10 * time.Second
	ShutdownDelay = 15 * time.Second
)

// Fallback reconnection grace when the arena manager has no configured value
const DefaultMaxReconnectMinutes = 5

// Stat names tracked in game_profiles.user_stats
const StatPlayedGames = "played_games"
