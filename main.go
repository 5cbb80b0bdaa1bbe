package main

import (
	"Skirmish/config"
	game_constants "Skirmish/constants/game"
	"Skirmish/middleware"
	models "Skirmish/models/postgres"
	"Skirmish/routes"
	"Skirmish/services/arena"
	"Skirmish/services/game"
	"Skirmish/services/redis"
	"Skirmish/services/socket_io"
	socketio_types "Skirmish/services/socket_io/types"
	"Skirmish/services/sync"
	"Skirmish/utils"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// processHost winds down the hosting process once the session terminates:
// final state sync, Redis cleanup, exit.
type processHost struct {
	syncManager *sync.SyncManager
	sessionID   string
	codeName    string
}

func (h *processHost) TerminateProcess() {
	if err := h.syncManager.CleanupSessionData(h.sessionID, h.codeName); err != nil {
		log.Printf("[HOST-ERROR] Final sync failed: %v", err)
	}
	log.Printf("[HOST] Session %s wound down, terminating process", h.codeName)
	os.Exit(0)
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	godotenv.Load()
	// Setup DB conn
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
			// Continue execution even if migration fails
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.ConnectRedis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	log.Println("Connection to Redis successful")
	defer redis.CloseRedis(redisClient)

	// Session identity and limits come from the environment; each server
	// process hosts exactly one session
	codeName := os.Getenv("SESSION_CODE_NAME")
	if codeName == "" {
		codeName = "skirmish"
	}
	creator := os.Getenv("SESSION_CREATOR")
	if creator == "" {
		creator = "server"
	}
	maxReconnectMinutes := envInt("MAX_RECONNECT_MINUTES", game_constants.DefaultMaxReconnectMinutes)
	maxSlots := envInt("MAX_SLOTS", 16)

	// Bookkeeping row for this run; the id doubles as the public session id
	if err := gormDB.FirstOrCreate(&models.GameProfile{Username: creator},
		models.GameProfile{Username: creator}).Error; err != nil {
		log.Fatalf("Error ensuring creator profile: %v", err)
	}
	sessionRow := &models.GameSession{
		CodeName:        codeName,
		CreatorUsername: creator,
	}
	if err := gormDB.Create(sessionRow).Error; err != nil {
		log.Fatalf("Error creating session record: %v", err)
	}
	log.Printf("Session %s registered with id %s", codeName, sessionRow.ID)

	sioServer := socketio_types.NewSocketServer()
	syncManager := sync.NewSyncManager(redisClient, sqlDB)
	economy := sync.NewEconomy(gormDB)

	// Participants must have a game profile; logging in flags it as in-game
	factory := func(username string, role game.Role) (game.Participant, error) {
		if _, err := utils.ProfileByUsername(gormDB, username); err != nil {
			return nil, err
		}
		gormDB.Model(&models.GameProfile{}).Where("username = ?", username).
			Update("is_in_a_game", true)
		return game.DefaultPlayerFactory(username, role)
	}

	arenaManager := arena.NewManager(redisClient, sioServer, maxReconnectMinutes, maxSlots)

	g := game.New(game.Config{
		CodeName:    codeName,
		Name:        os.Getenv("SESSION_NAME"),
		Description: os.Getenv("SESSION_DESCRIPTION"),
		MinPlayers:  envInt("MIN_PLAYERS", 0),
	}, game.Deps{
		Arena:     arenaManager,
		Messenger: socket_io.NewSessionMessenger(sioServer, codeName),
		Economy:   economy,
		Payouts:   sync.NewEndGamePayout(economy),
		Host: &processHost{
			syncManager: syncManager,
			sessionID:   sessionRow.ID,
			codeName:    codeName,
		},
		Factory: factory,
	})

	arenaManager.Bind(g)

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, gormDB, sqlDB, redisClient, g, syncManager)

	(*socket_io.MySocketServer)(sioServer).Start(r, gormDB, redisClient, g)

	// Session is registered and reachable, arm the pre-game countdown
	g.HandlePostRegistration()

	// Configure port
	port := os.Getenv("PORT")
	if port == "" && os.Getenv("USE_HTTPS") == "true" {
		port = "443"
	} else if port == "" {
		port = "8080"
	}

	if os.Getenv("USE_HTTPS") == "true" {
		//SSL certification configuration for HTTPS
		certFile := os.Getenv("SSL_CERT_FILE")
		keyFile := os.Getenv("SSL_KEY_FILE")

		// Start server
		if err := r.RunTLS(":"+port, certFile, keyFile); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	} else {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
}
