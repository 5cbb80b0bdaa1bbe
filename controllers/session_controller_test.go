package controllers

import (
	"Skirmish/services/game"
	"Skirmish/services/redis"
	"Skirmish/services/sync"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// No-op collaborators, enough to drive the session core in handler tests
type nopArena struct{}

func (nopArena) Refresh() {}

func (nopArena) IsReconnectAllowed(username string) bool { return true }

func (nopArena) MaxReconnectMinutes() int { return 5 }

func (nopArena) Kick(username string, reason string) {}

type nopMessenger struct{}

func (nopMessenger) NotifyGameStart() {}

func (nopMessenger) NotifyCountdown(secondsLeft int) {}

func (nopMessenger) NotifyJoin(username string) {}

func (nopMessenger) NotifyDisconnected(username string, remaining time.Duration) {}

func (nopMessenger) NotifyQuit(username string) {}

func (nopMessenger) NotifyReconnected(username string) {}

func (nopMessenger) NotifyReconnectTimeout(username string) {}

func (nopMessenger) HideModerator(moderator string, viewers []string) {}

func newTestSession() *game.Game {
	return game.New(game.Config{
		CodeName:    "skirmish",
		Name:        "Skirmish",
		Description: "Test session",
	}, game.Deps{
		Arena:     nopArena{},
		Messenger: nopMessenger{},
	})
}

func TestGetSessionInfo(t *testing.T) {
	// Setup test environment
	gin.SetMode(gin.TestMode)

	g := newTestSession()
	g.HandleLogin("alice")
	g.HandleLogin("bob")

	sessionController := &SessionController{
		RedisClient: &redis.RedisClient{},
		Game:        g,
		SyncManager: &sync.SyncManager{},
	}

	// Setup router
	router := gin.New()
	router.GET("/session", sessionController.GetSessionInfo)

	req, _ := http.NewRequest("GET", "/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Equal(t, "skirmish", response["code_name"])
	assert.Equal(t, "waiting_for_players", response["status"])
	assert.Equal(t, false, response["started"])
	assert.Equal(t, float64(2), response["player_count"])
}

func TestGetParticipantsListsViews(t *testing.T) {
	gin.SetMode(gin.TestMode)

	g := newTestSession()
	g.HandleLogin("alice")
	g.HandleLogin("bob")
	g.SetSpectator("bob")

	sessionController := &SessionController{Game: g}

	router := gin.New()
	router.GET("/session/participants", sessionController.GetParticipants)

	req, _ := http.NewRequest("GET", "/session/participants", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Len(t, response["players"], 1)
	assert.Equal(t, []interface{}{"bob"}, response["spectators"])
	assert.Len(t, response["registered"], 2)
}

func TestGetSessionRecord(t *testing.T) {
	// Setup test environment
	gin.SetMode(gin.TestMode)
	db, mock, _ := sqlmock.New()
	defer db.Close()

	sessionController := &SessionController{
		DB:          db,
		RedisClient: &redis.RedisClient{},
		Game:        newTestSession(),
		SyncManager: &sync.SyncManager{},
	}

	// Setup router
	router := gin.New()
	router.GET("/sessions/:id", sessionController.GetSessionRecord)

	mock.ExpectQuery(`SELECT id, code_name, creator_username, status, started_at, finished_at, player_count`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code_name", "creator_username", "status", "started_at", "finished_at", "player_count",
		}).AddRow("abc123", "skirmish", "mod", "finished", nil, nil, 4))

	req, _ := http.NewRequest("GET", "/sessions/abc123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Equal(t, "abc123", response["id"])
	assert.Equal(t, "finished", response["status"])
	assert.Equal(t, float64(4), response["player_count"])

	// Verify all expectations were met
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionRecordNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock, _ := sqlmock.New()
	defer db.Close()

	sessionController := &SessionController{DB: db, Game: newTestSession()}

	router := gin.New()
	router.GET("/sessions/:id", sessionController.GetSessionRecord)

	mock.ExpectQuery(`SELECT id, code_name, creator_username, status, started_at, finished_at, player_count`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code_name", "creator_username", "status", "started_at", "finished_at", "player_count",
		}))

	req, _ := http.NewRequest("GET", "/sessions/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartSessionRequiresModerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock, _ := sqlmock.New()
	defer db.Close()

	g := newTestSession()
	sessionController := &SessionController{DB: db, Game: g}

	router := gin.New()
	router.POST("/session/start", sessionController.StartSession)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	req, _ := http.NewRequest("POST", "/session/start", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, game.StatusWaitingForPlayers, g.Status())
	assert.NoError(t, mock.ExpectationsWereMet())
}
