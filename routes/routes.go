package routes

import (
	"Skirmish/controllers"
	"Skirmish/middleware"
	"Skirmish/services/game"
	"Skirmish/services/redis"
	"Skirmish/services/sync"
	utils "Skirmish/utils"
	"database/sql"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, sqlDB *sql.DB,
	redisClient *redis.RedisClient, g *game.Game, syncManager *sync.SyncManager) {

	// Create controllers
	sessionController := &controllers.SessionController{
		DB:          sqlDB,
		RedisClient: redisClient,
		Game:        g,
		SyncManager: syncManager,
	}

	// utils global
	router.Use(utils.ErrorHandler())

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db))

	api.GET("/users/:username", controllers.GetUserPublicInfo(db))

	api.GET("/session", sessionController.GetSessionInfo)

	api.GET("/session/participants", sessionController.GetParticipants)

	api.GET("/arena/slots", sessionController.GetArenaSlots)

	api.GET("/players/:username/presence", sessionController.GetPlayerPresence)

	api.GET("/sessions/:id", sessionController.GetSessionRecord)

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/me", controllers.GetUserPrivateInfo(db))

		authentication.POST("/session/start", sessionController.StartSession)

		authentication.POST("/session/end", sessionController.EndSession)
	}
}
