package controllers

import (
	"Skirmish/services/game"
	"Skirmish/services/redis"
	"Skirmish/services/sync"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	DB          *sql.DB
	RedisClient *redis.RedisClient
	Game        *game.Game
	SyncManager *sync.SyncManager
}

// GetSessionInfo returns the live state of the session this server hosts
func (sc *SessionController) GetSessionInfo(c *gin.Context) {
	g := sc.Game

	c.JSON(http.StatusOK, gin.H{
		"code_name":    g.CodeName(),
		"name":         g.Name(),
		"description":  g.Description(),
		"status":       string(g.Status()),
		"started":      g.IsStarted(),
		"start_time":   g.StartTime(),
		"player_count": g.ConnectedCount(),
	})
}

// GetParticipants returns the three participant views: active players,
// visible spectators and everyone ever registered
func (sc *SessionController) GetParticipants(c *gin.Context) {
	g := sc.Game

	players := []gin.H{}
	for username, p := range g.InGamePlayers() {
		players = append(players, gin.H{
			"username":   username,
			"connection": string(p.Connection()),
			"coins":      p.Coins(),
			"stars":      p.Stars(),
		})
	}

	spectators := []string{}
	for username := range g.VisibleSpectatorPlayers() {
		spectators = append(spectators, username)
	}

	registered := []string{}
	for username := range g.RegisteredPlayers() {
		registered = append(registered, username)
	}

	c.JSON(http.StatusOK, gin.H{
		"players":    players,
		"spectators": spectators,
		"registered": registered,
	})
}

// GetArenaSlots returns the slot advertisement this server publishes for
// the pool: whether the session is joinable and how many seats are free
func (sc *SessionController) GetArenaSlots(c *gin.Context) {
	slots, err := sc.RedisClient.GetArenaSlots(sc.Game.CodeName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading arena slots: " + err.Error()})
		return
	}
	if slots == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No slots advertised yet"})
		return
	}

	c.JSON(http.StatusOK, slots)
}

// GetPlayerPresence returns the mirrored presence of one participant
func (sc *SessionController) GetPlayerPresence(c *gin.Context) {
	username := c.Param("username")

	presence, err := sc.RedisClient.GetPlayerPresence(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading player presence: " + err.Error()})
		return
	}
	if presence == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Player not present in any session"})
		return
	}

	c.JSON(http.StatusOK, presence)
}

// GetSessionRecord gets the bookkeeping row of a session with the provided id
func (sc *SessionController) GetSessionRecord(c *gin.Context) {
	id := c.Param("id")

	var record struct {
		ID              string     `json:"id"`
		CodeName        string     `json:"code_name"`
		CreatorUsername string     `json:"creator"`
		Status          string     `json:"status"`
		StartedAt       *time.Time `json:"started_at"`
		FinishedAt      *time.Time `json:"finished_at"`
		PlayerCount     int        `json:"player_count"`
	}

	err := sc.DB.QueryRow(`
		SELECT id, code_name, creator_username, status, started_at, finished_at, player_count
		FROM game_sessions
		WHERE id = $1
	`, id).Scan(
		&record.ID, &record.CodeName, &record.CreatorUsername, &record.Status,
		&record.StartedAt, &record.FinishedAt, &record.PlayerCount,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying database: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// callerIsModerator resolves the authenticated email set by the JWT
// middleware to the moderator flag of the caller's profile
func (sc *SessionController) callerIsModerator(c *gin.Context) bool {
	email := c.GetString("email")

	var count int
	err := sc.DB.QueryRow(`
		SELECT COUNT(*)
		FROM game_profiles p
		JOIN users u ON u.profile_username = p.username
		WHERE u.email = $1 AND p.is_moderator = true
	`, email).Scan(&count)

	return err == nil && count > 0
}

// StartSession starts the game ahead of the countdown, moderators only
func (sc *SessionController) StartSession(c *gin.Context) {
	if !sc.callerIsModerator(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only moderators can start the game"})
		return
	}

	if err := sc.Game.StartGame(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "The game cannot be started right now"})
		return
	}

	state := sc.Game.Snapshot()
	sc.RedisClient.SaveSessionState(&state)

	c.JSON(http.StatusOK, gin.H{"status": string(sc.Game.Status())})
}

// EndSession finishes the session and triggers the delayed termination
// sequence, moderators only
func (sc *SessionController) EndSession(c *gin.Context) {
	if !sc.callerIsModerator(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only moderators can end the game"})
		return
	}

	if err := sc.Game.HandleGameEnd(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "The game already ended"})
		return
	}

	state := sc.Game.Snapshot()
	sc.RedisClient.SaveSessionState(&state)

	c.JSON(http.StatusOK, gin.H{"status": string(sc.Game.Status())})
}
