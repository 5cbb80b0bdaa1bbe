package postgres

import (
	"gorm.io/datatypes"
)

/*
 * 'SessionPlayer' records one participant's outcome in one session:
 * the earnings paid out at the end and how they left. References
 * GameSession and GameProfile
 */
type SessionPlayer struct {
	// NOTE: composite primary key definition
	SessionID  string         `gorm:"primaryKey;size:50;not null"`
	Username   string         `gorm:"primaryKey;size:50;not null;index"`
	Role       string         `gorm:"size:20;default:'regular'"`
	Spectator  bool           `gorm:"default:false"`
	Connection string         `gorm:"size:20;default:'online'"`
	Coins      int            `gorm:"default:0"`
	Stars      int            `gorm:"default:0"`
	GameStats  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	GameSession GameSession `gorm:"foreignKey:SessionID"`
	GameProfile GameProfile `gorm:"foreignKey:Username"`
}
