package arena

import (
	redis_models "Skirmish/models/redis"
	"Skirmish/services/game"
	socketio_types "Skirmish/services/socket_io/types"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// StatePublisher is the slice of the Redis client the manager publishes
// through. Narrowed to an interface so the publish path is testable.
type StatePublisher interface {
	SaveSessionState(state *redis_models.SessionState) error
	SaveArenaSlots(slots *redis_models.ArenaSlots) error
	SavePlayerPresence(presence *redis_models.ParticipantPresence) error
}

/*
 * Manager is the arena collaborator: it advertises the session's slot counts,
 * mirrored state and per-participant presence in Redis so the server pool can
 * route players, answers reconnection-policy questions and force-disconnects
 * kicked participants.
 *
 * Refresh is called from inside the session core, so publishing happens on a
 * separate goroutine: Refresh only flags the mirror as stale and the publish
 * loop picks it up. Consecutive refreshes coalesce.
 */
type Manager struct {
	redisClient StatePublisher
	sio         *socketio_types.SocketServer

	maxReconnectMinutes int
	maxSlots            int

	g        *game.Game
	refreshC chan struct{}
}

func NewManager(redisClient StatePublisher, sio *socketio_types.SocketServer,
	maxReconnectMinutes int, maxSlots int) *Manager {
	return &Manager{
		redisClient:         redisClient,
		sio:                 sio,
		maxReconnectMinutes: maxReconnectMinutes,
		maxSlots:            maxSlots,
		refreshC:            make(chan struct{}, 1),
	}
}

// Bind attaches the session this manager advertises and starts the publish
// loop. Must be called exactly once, before the session takes traffic.
func (m *Manager) Bind(g *game.Game) {
	m.g = g
	go m.publishLoop()
}

// Refresh marks the advertised state as stale. Never blocks.
func (m *Manager) Refresh() {
	select {
	case m.refreshC <- struct{}{}:
	default:
	}
}

func (m *Manager) publishLoop() {
	for range m.refreshC {
		m.publish()
	}
}

func (m *Manager) publish() {
	state := m.g.Snapshot()
	if err := m.redisClient.SaveSessionState(&state); err != nil {
		log.Printf("[ARENA-ERROR] Publishing session state: %v", err)
	}

	free := m.maxSlots - state.PlayerCount
	if free < 0 {
		free = 0
	}
	slots := redis_models.ArenaSlots{
		CodeName:  state.CodeName,
		Status:    state.Status,
		Joinable:  state.Status == string(game.StatusWaitingForPlayers),
		FreeSlots: free,
		MaxSlots:  m.maxSlots,
		UpdatedAt: time.Now(),
	}
	if err := m.redisClient.SaveArenaSlots(&slots); err != nil {
		log.Printf("[ARENA-ERROR] Publishing arena slots: %v", err)
	}

	// Presence keys let other processes look a player up without loading
	// the whole session mirror
	for _, p := range state.Participants {
		presence := p
		if err := m.redisClient.SavePlayerPresence(&presence); err != nil {
			log.Printf("[ARENA-ERROR] Publishing presence for %s: %v", p.Username, err)
		}
	}
}

// IsReconnectAllowed reports whether the arena grants disconnect grace at
// all. Zero configured minutes disables reconnection for everyone.
func (m *Manager) IsReconnectAllowed(username string) bool {
	return m.maxReconnectMinutes > 0
}

func (m *Manager) MaxReconnectMinutes() int {
	return m.maxReconnectMinutes
}

// Kick notifies and force-disconnects a participant. Runs asynchronously:
// the session core calls this while holding its own lock and the disconnect
// feeds back into HandleLogout.
func (m *Manager) Kick(username string, reason string) {
	go func() {
		if reason == "" {
			reason = "The session has ended"
		}
		if client, ok := m.sio.GetConnection(username); ok {
			client.Emit("kicked", gin.H{"reason": reason})
		}
		m.sio.Disconnect(username)
		log.Printf("[ARENA] Kicked %s: %s", username, reason)
	}()
}
