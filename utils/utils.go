package utils

import (
	"Skirmish/models/postgres"
	"fmt"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
)

// ErrorHandler handles global errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

// UserByEmail resolves the account behind an authenticated email.
func UserByEmail(db *gorm.DB, email string) (*postgres.User, error) {
	var user postgres.User
	result := db.Where("email = ?", email).First(&user)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, result.Error
	}

	return &user, nil
}

// ProfileByUsername fetches the game profile for a username.
func ProfileByUsername(db *gorm.DB, username string) (*postgres.GameProfile, error) {
	var profile postgres.GameProfile
	result := db.Where("username = ?", username).First(&profile)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("game profile not found")
		}
		return nil, result.Error
	}

	return &profile, nil
}

// IsModerator reports whether the username carries the moderator flag.
// Unknown usernames are not moderators.
func IsModerator(db *gorm.DB, username string) (bool, error) {
	var count int64
	err := db.Model(&postgres.GameProfile{}).
		Where("username = ? AND is_moderator = ?", username, true).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
