package game

// Registry maps usernames to their participant records. It has no lock of
// its own; every access goes through the owning Game's mutex. All view
// methods return fresh maps so callers never see (or mutate) the internal
// storage.
type Registry struct {
	players map[string]Participant
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]Participant)}
}

func (r *Registry) Add(p Participant) {
	r.players[p.Username()] = p
}

// Get returns nil when the participant has no record. Operations on unknown
// usernames are a normal case (offline credit, stale events), not a fault.
func (r *Registry) Get(username string) Participant {
	return r.players[username]
}

func (r *Registry) Remove(username string) {
	delete(r.players, username)
}

func (r *Registry) Has(username string) bool {
	_, ok := r.players[username]
	return ok
}

func (r *Registry) Len() int {
	return len(r.players)
}

// InGamePlayers returns the participants still competing: not spectating and
// not permanently gone. Includes disconnected players whose reconnection
// window is still open.
func (r *Registry) InGamePlayers() map[string]Participant {
	inGame := make(map[string]Participant)
	for username, p := range r.players {
		if !p.IsSpectator() && p.Connection() != ConnectionLeft {
			inGame[username] = p
		}
	}
	return inGame
}

// SpectatorPlayers returns every spectating participant, moderators included.
func (r *Registry) SpectatorPlayers() map[string]Participant {
	spectators := make(map[string]Participant)
	for username, p := range r.players {
		if p.IsSpectator() && p.Connection() != ConnectionLeft {
			spectators[username] = p
		}
	}
	return spectators
}

// VisibleSpectatorPlayers returns the spectators other players can see,
// i.e. moderators excluded.
func (r *Registry) VisibleSpectatorPlayers() map[string]Participant {
	spectators := make(map[string]Participant)
	for username, p := range r.players {
		if p.IsSpectator() && !p.IsModerator() && p.Connection() != ConnectionLeft {
			spectators[username] = p
		}
	}
	return spectators
}

// RegisteredPlayers returns a snapshot of every record, permanently-left
// participants included.
func (r *Registry) RegisteredPlayers() map[string]Participant {
	all := make(map[string]Participant, len(r.players))
	for username, p := range r.players {
		all[username] = p
	}
	return all
}

// ConnectedCount is the number of in-game (non-spectating) participants.
// Same result as len(InGamePlayers()) without building the map.
func (r *Registry) ConnectedCount() int {
	count := 0
	for _, p := range r.players {
		if !p.IsSpectator() && p.Connection() != ConnectionLeft {
			count++
		}
	}
	return count
}

// OnlineUsernames lists the participants currently connected, whatever
// their role.
func (r *Registry) OnlineUsernames() []string {
	online := make([]string, 0, len(r.players))
	for username, p := range r.players {
		if p.Connection() == ConnectionOnline {
			online = append(online, username)
		}
	}
	return online
}
