package sync

import (
	redis_models "Skirmish/models/redis"
	"database/sql"
	"fmt"
	"time"
)

// StateSource is the slice of the Redis client the sync manager needs.
// Narrowed to an interface so the SQL side is testable without a server.
type StateSource interface {
	GetSessionState(codeName string) (*redis_models.SessionState, error)
	DeleteSessionState(codeName string) error
	DeletePlayerPresence(username string) error
}

type SyncManager struct {
	redisClient StateSource
	db          *sql.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(redisClient StateSource, db *sql.DB) *SyncManager {
	return &SyncManager{
		redisClient: redisClient,
		db:          db,
	}
}

// SyncSessionState synchronizes the session mirror from Redis to PostgreSQL:
// the bookkeeping row plus one session_players row per participant.
func (sm *SyncManager) SyncSessionState(sessionID string, codeName string) error {
	// Get session state from Redis
	state, err := sm.redisClient.GetSessionState(codeName)
	if err != nil {
		return fmt.Errorf("error getting session state from Redis: %v", err)
	}

	// Start transaction
	tx, err := sm.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %v", err)
	}
	defer tx.Rollback()

	var startedAt *time.Time
	if state.StartTime >= 0 {
		t := time.UnixMilli(state.StartTime)
		startedAt = &t
	}

	// Update game_sessions
	sessionQuery := `
		UPDATE game_sessions
		SET
			status = $1,
			player_count = $2,
			started_at = $3
		WHERE id = $4
	`

	_, err = tx.Exec(sessionQuery,
		state.Status,
		state.PlayerCount,
		startedAt,
		sessionID)

	if err != nil {
		return fmt.Errorf("error updating session state in PostgreSQL: %v", err)
	}

	// Upsert session_players
	playerQuery := `
		INSERT INTO session_players (session_id, username, role, spectator, connection, coins, stars)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, username) DO UPDATE
		SET
			role = EXCLUDED.role,
			spectator = EXCLUDED.spectator,
			connection = EXCLUDED.connection,
			coins = EXCLUDED.coins,
			stars = EXCLUDED.stars
	`

	for _, p := range state.Participants {
		_, err = tx.Exec(playerQuery,
			sessionID,
			p.Username,
			p.Role,
			p.Spectator,
			p.Connection,
			p.Coins,
			p.Stars)

		if err != nil {
			return fmt.Errorf("error updating participant %s in PostgreSQL: %v", p.Username, err)
		}
	}

	// Confirm transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %v", err)
	}

	return nil
}

// FinishSession stamps the termination time on the bookkeeping row.
func (sm *SyncManager) FinishSession(sessionID string) error {
	query := `
		UPDATE game_sessions
		SET finished_at = $1
		WHERE id = $2 AND finished_at IS NULL
	`

	if _, err := sm.db.Exec(query, time.Now(), sessionID); err != nil {
		return fmt.Errorf("error finishing session in PostgreSQL: %v", err)
	}
	return nil
}

// CleanupSessionData synchronizes the final state and cleans Redis
func (sm *SyncManager) CleanupSessionData(sessionID string, codeName string) error {
	// Sync final session state
	if err := sm.SyncSessionState(sessionID, codeName); err != nil {
		return fmt.Errorf("error syncing final session state: %v", err)
	}

	if err := sm.FinishSession(sessionID); err != nil {
		return err
	}

	// Clean Redis data: the mirror, the slot advertisement and every
	// participant presence key
	state, err := sm.redisClient.GetSessionState(codeName)
	if err == nil {
		for _, p := range state.Participants {
			if err := sm.redisClient.DeletePlayerPresence(p.Username); err != nil {
				return fmt.Errorf("error cleaning presence of %s: %v", p.Username, err)
			}
		}
	}

	if err := sm.redisClient.DeleteSessionState(codeName); err != nil {
		return fmt.Errorf("error cleaning session mirror: %v", err)
	}

	return nil
}
