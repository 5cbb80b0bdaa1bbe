package socket_io

import (
	socketio_types "Skirmish/services/socket_io/types"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// SessionRoom returns the socket.io room that groups every client connected
// to the given session.
func SessionRoom(codeName string) socket.Room {
	return socket.Room(fmt.Sprintf("session:%s", codeName))
}

// SessionMessenger delivers the session's user-facing notifications over
// socket.io room broadcasts. It never reads session state back, it only emits.
type SessionMessenger struct {
	sio      *socketio_types.SocketServer
	codeName string
}

func NewSessionMessenger(sio *socketio_types.SocketServer, codeName string) *SessionMessenger {
	return &SessionMessenger{sio: sio, codeName: codeName}
}

func (m *SessionMessenger) broadcast(event string, payload gin.H) {
	// Nil before Start() wires the server; drop the event instead of panicking
	if m.sio.Sio_server == nil {
		return
	}
	m.sio.Sio_server.To(SessionRoom(m.codeName)).Emit(event, payload)
}

func (m *SessionMessenger) NotifyGameStart() {
	m.broadcast("game_start", gin.H{"message": "The game has started!"})
}

func (m *SessionMessenger) NotifyCountdown(secondsLeft int) {
	m.broadcast("countdown", gin.H{"seconds_left": secondsLeft})
}

func (m *SessionMessenger) NotifyJoin(username string) {
	m.broadcast("player_joined", gin.H{"username": username})
}

func (m *SessionMessenger) NotifyDisconnected(username string, remaining time.Duration) {
	m.broadcast("player_disconnected", gin.H{
		"username":     username,
		"remaining_ms": remaining.Milliseconds(),
	})
}

func (m *SessionMessenger) NotifyQuit(username string) {
	m.broadcast("player_quit", gin.H{"username": username})
}

func (m *SessionMessenger) NotifyReconnected(username string) {
	m.broadcast("player_reconnected", gin.H{"username": username})
}

func (m *SessionMessenger) NotifyReconnectTimeout(username string) {
	m.broadcast("reconnect_timeout", gin.H{
		"username": username,
		"message":  "Reconnection window expired, you are now spectating",
	})
}

// HideModerator is sent per viewer instead of to the room so that clients
// connecting later never receive it.
func (m *SessionMessenger) HideModerator(moderator string, viewers []string) {
	for _, viewer := range viewers {
		if client, ok := m.sio.GetConnection(viewer); ok {
			client.Emit("hide_player", gin.H{"username": moderator})
		}
	}
}
