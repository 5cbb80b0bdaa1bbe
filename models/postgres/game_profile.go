package postgres

import (
	"gorm.io/datatypes"
)

/*
 * 'GameProfile' is the persistent per-player profile: the currency balances
 * and statistics that sessions credit into. Referenced by User,
 * GameSession and SessionPlayer
 */
type GameProfile struct {
	Username  string         `gorm:"primaryKey;size:50;not null"`
	Coins     int            `gorm:"default:0"`
	Stars     int            `gorm:"default:0"`
	UserStats datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	UserIcon  int            `gorm:"default:0"`
	IsInAGame bool           `gorm:"default:false"`
	// Moderators join sessions hidden and always spectate
	IsModerator bool `gorm:"default:false"`

	SessionPlayers []SessionPlayer `gorm:"foreignKey:Username"`
	GameSessions   []GameSession   `gorm:"foreignKey:CreatorUsername"`
}
