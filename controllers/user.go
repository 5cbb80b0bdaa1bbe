package controllers

import (
	"Skirmish/middleware"
	models "Skirmish/models/postgres"
	"Skirmish/utils"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// @Summary Endpoint just pings the server
// @Description Returns a basic message
// @Tags test
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}

func SignUp(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.PostForm("email")
		username := c.PostForm("username")
		password := c.PostForm("password")

		//Minimum input sanitizing
		if strings.Trim(email, " ") == "" || strings.Trim(username, " ") == "" ||
			strings.Trim(password, " ") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not process password"})
			return
		}

		// Profile first, the user row references it
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.GameProfile{Username: username}).Error; err != nil {
				return err
			}
			return tx.Create(&models.User{
				Email:           email,
				ProfileUsername: username,
				PasswordHash:    string(hash),
			}).Error
		})

		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email or username already taken"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"username": username})
	}
}

func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email := c.PostForm("email")
		password := c.PostForm("password")

		//Minimum input sanitizing
		if strings.Trim(email, " ") == "" || strings.Trim(password, " ") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		token, err := middleware.GenerateToken(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not issue token"})
			return
		}

		session.Set("Email", user.Email)
		if err := session.Save(); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No session!"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"username": user.ProfileUsername,
		})
	}
}

// Logout from server, deletes the session associated with the Email key
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	user := session.Get("Email")
	// There is no session for the user, won't delete nothing
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session token"})
		return
	}

	// Deletes the session associated with that userkey
	session.Delete("Email")
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GetUserPublicInfo returns the profile data anyone may see.
func GetUserPublicInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		profile, err := utils.ProfileByUsername(db, username)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"username":  profile.Username,
			"coins":     profile.Coins,
			"stars":     profile.Stars,
			"user_icon": profile.UserIcon,
		})
	}
}

// GetUserPrivateInfo returns the full account of the authenticated user.
func GetUserPrivateInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString("email")

		user, err := utils.UserByEmail(db, email)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		profile, err := utils.ProfileByUsername(db, user.ProfileUsername)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game profile not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"email":        user.Email,
			"username":     user.ProfileUsername,
			"member_since": user.MemberSince,
			"coins":        profile.Coins,
			"stars":        profile.Stars,
			"user_icon":    profile.UserIcon,
			"stats":        profile.UserStats,
			"is_in_game":   profile.IsInAGame,
		})
	}
}
