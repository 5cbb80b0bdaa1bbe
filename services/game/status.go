package game

// Status is the global state of a session. It moves from waiting to in_game
// exactly once, then to finished or rebooting.
type Status string

const (
	StatusWaitingForPlayers Status = "waiting_for_players"
	StatusInGame            Status = "in_game"
	StatusFinished          Status = "finished"
	StatusRebooting         Status = "rebooting"
)

// Started reports whether the session has gone past the waiting phase
// (in game, finished or rebooting).
func (s Status) Started() bool {
	return s == StatusInGame || s == StatusFinished || s == StatusRebooting
}
