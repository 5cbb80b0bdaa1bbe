package game

import (
	redis_models "Skirmish/models/redis"
)

// Snapshot builds the publishable mirror of the current session state. The
// returned value shares nothing with the internal storage.
func (g *Game) Snapshot() redis_models.SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := redis_models.SessionState{
		CodeName:    g.cfg.CodeName,
		Status:      string(g.status),
		StartTime:   g.startTime,
		PlayerCount: g.registry.ConnectedCount(),
		UpdatedAt:   g.now(),
	}

	for username, p := range g.registry.RegisteredPlayers() {
		presence := redis_models.ParticipantPresence{
			Username:   username,
			Role:       string(p.Role()),
			Connection: string(p.Connection()),
			Spectator:  p.IsSpectator(),
			Coins:      p.Coins(),
			Stars:      p.Stars(),
		}
		if w := g.windows[username]; w != nil {
			presence.ReconnectDeadline = w.deadline.UnixMilli()
		}
		state.Participants = append(state.Participants, presence)
	}

	return state
}
