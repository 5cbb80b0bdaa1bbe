package redis

import "time"

/*
 * Live mirror of a running session. The session core owns the in-memory
 * truth; this snapshot is what the hosting process publishes to Redis so
 * the arena manager and other processes can observe it.
 */

type ParticipantPresence struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	Connection string `json:"connection"`
	Spectator  bool   `json:"spectator"`
	Coins      int    `json:"coins"`
	Stars      int    `json:"stars"`
	// Unix millis; 0 when no reconnection window is open
	ReconnectDeadline int64 `json:"reconnect_deadline,omitempty"`
}

type SessionState struct {
	CodeName     string                `json:"code_name"`
	Status       string                `json:"status"`
	StartTime    int64                 `json:"start_time"` // unix millis, -1 before start
	PlayerCount  int                   `json:"player_count"`
	Participants []ParticipantPresence `json:"participants"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ArenaSlots is what the capacity manager advertises for this server.
type ArenaSlots struct {
	CodeName  string    `json:"code_name"`
	Status    string    `json:"status"`
	Joinable  bool      `json:"joinable"`
	FreeSlots int       `json:"free_slots"`
	MaxSlots  int       `json:"max_slots"`
	UpdatedAt time.Time `json:"updated_at"`
}
