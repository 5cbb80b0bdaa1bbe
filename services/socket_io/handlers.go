package socket_io

import (
	"Skirmish/services/game"
	"Skirmish/services/redis"
	socketio_types "Skirmish/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// PublishSessionState mirrors the current session snapshot into Redis.
// Called after every socket-driven mutation.
func PublishSessionState(redisClient *redis.RedisClient, g *game.Game) {
	state := g.Snapshot()
	if err := redisClient.SaveSessionState(&state); err != nil {
		log.Printf("[SOCKET-ERROR] Publishing session state: %v", err)
	}
}

// HandleSessionInfo replies with the session mirror: status, start time and
// every registered participant with their presence.
func HandleSessionInfo(client *socket.Socket, g *game.Game) func(args ...interface{}) {
	return func(args ...interface{}) {
		state := g.Snapshot()
		client.Emit("session_info", state)
	}
}

// HandleStartGame starts the session immediately, skipping what's left of
// the countdown. Only moderators may do this.
func HandleStartGame(redisClient *redis.RedisClient, client *socket.Socket,
	g *game.Game, username string, isModerator bool) func(args ...interface{}) {
	return func(args ...interface{}) {
		if !isModerator {
			log.Printf("[START-ERROR] %s tried to start session %s without permission", username, g.CodeName())
			client.Emit("error", gin.H{"error": "Only moderators can start the game"})
			return
		}

		if err := g.StartGame(); err != nil {
			log.Printf("[START-ERROR] %s could not start session %s: %v", username, g.CodeName(), err)
			client.Emit("error", gin.H{"error": "The game cannot be started right now"})
			return
		}

		PublishSessionState(redisClient, g)
	}
}

// HandleEndGame finishes the session and kicks off the delayed termination
// sequence. Only moderators may do this.
func HandleEndGame(redisClient *redis.RedisClient, client *socket.Socket,
	g *game.Game, username string, isModerator bool) func(args ...interface{}) {
	return func(args ...interface{}) {
		if !isModerator {
			log.Printf("[END-ERROR] %s tried to end session %s without permission", username, g.CodeName())
			client.Emit("error", gin.H{"error": "Only moderators can end the game"})
			return
		}

		if err := g.HandleGameEnd(); err != nil {
			log.Printf("[END-ERROR] %s could not end session %s: %v", username, g.CodeName(), err)
			client.Emit("error", gin.H{"error": "The game already ended"})
			return
		}

		PublishSessionState(redisClient, g)
	}
}

// HandleDisconnecting routes the socket-level disconnect into the session
// core, which decides between a grace window and a definitive quit.
func HandleDisconnecting(redisClient *redis.RedisClient, g *game.Game,
	username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[SOCKET] %s is disconnecting from session %s", username, g.CodeName())

		g.HandleLogout(username)
		sio.RemoveConnection(username)

		PublishSessionState(redisClient, g)
	}
}
