package postgres

import (
	"math/rand"
	"time"

	"gorm.io/gorm"
)

/*
 * 'GameSession' is the durable bookkeeping row for one session run on this
 * server. The live state lives in the session core and its Redis mirror;
 * this row is what survives the process.
 */
type GameSession struct {
	ID              string     `gorm:"primaryKey;size:50;not null"`
	CodeName        string     `gorm:"size:50;not null;index:idx_game_sessions_code"`
	CreatorUsername string     `gorm:"size:50;index:idx_game_sessions_creator"`
	Status          string     `gorm:"size:30;default:'waiting_for_players';index:idx_game_sessions_status"`
	StartedAt       *time.Time `gorm:""`
	FinishedAt      *time.Time `gorm:""`
	PlayerCount     int        `gorm:"default:0"`
	CreatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP"`

	Creator        GameProfile      `gorm:"foreignKey:CreatorUsername"`
	SessionPlayers []*SessionPlayer `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Random session id generation
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateSessionID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// Ensure the generated id is unique before inserting. The id space is small
// on purpose (players type these), so collisions are retried.
func (s *GameSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID != "" {
		return nil
	}
	for {
		newID := generateSessionID(6)
		var existing GameSession
		if err := tx.Where("id = ?", newID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				s.ID = newID
				return nil
			}
			return err
		}
		// Collision, loop again for a fresh id
	}
}
