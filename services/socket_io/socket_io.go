package socket_io

import (
	"Skirmish/services/game"
	"Skirmish/services/redis"
	socketio_types "Skirmish/services/socket_io/types"
	socketio_utils "Skirmish/services/socket_io/utils"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

func (sio *MySocketServer) Start(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient, g *game.Game) {
	log.DEBUG = true
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	// KEY: inicializar el map, sino panikea
	sio.UserConnections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Check if the client is authenticated
		success, username, isModerator := socketio_utils.VerifyUserConnection(client, db)
		if !success {
			return
		}

		// A participant whose grace window is still open comes back as a
		// reconnect, everyone else goes through the admission policy
		reconnect := false
		if p := g.Player(username); p != nil && p.Connection() == game.ConnectionReconnectable {
			reconnect = true
		}

		if allowed, reason := g.CanJoin(username, reconnect); !allowed {
			fmt.Println("Join denied for", username, ":", reason)
			client.Emit("join_denied", gin.H{"reason": reason})
			client.Disconnect(true)
			return
		}

		// Add connection to map
		(*socketio_types.SocketServer)(sio).AddConnection(username, client)

		fmt.Println("An individual just connected!: ", username)

		// Join the socket.io room associated with the session
		client.Join(SessionRoom(g.CodeName()))

		// Route the login into the session core
		switch {
		case reconnect:
			g.HandleReconnect(username)
		case isModerator:
			if err := g.HandleModeratorLogin(username); err != nil {
				client.Emit("error", gin.H{"error": "Could not join the session"})
			}
		default:
			if err := g.HandleLogin(username); err != nil {
				client.Emit("error", gin.H{"error": "Could not join the session"})
			}
		}

		PublishSessionState(redisClient, g)

		// Send the current session mirror to whoever asks
		client.On("session_info", HandleSessionInfo(client, g))

		// Start the game ahead of the countdown (moderators only)
		client.On("start_game", HandleStartGame(redisClient, client, g, username, isModerator))

		// Finish the session and trigger the termination sequence (moderators only)
		client.On("end_game", HandleEndGame(redisClient, client, g, username, isModerator))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", HandleDisconnecting(redisClient, g, username, (*socketio_types.SocketServer)(sio)))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				g.Shutdown()
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Socket server started")
}
