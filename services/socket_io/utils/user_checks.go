package socketio_utils

import (
	"Skirmish/middleware"
	models "Skirmish/models/postgres"
	"Skirmish/utils"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// Function that verifies a socket.io client connection using JWT authentication.
// It extracts the email from the JWT token and retrieves the associated username
// and moderator flag from the database.
func VerifyUserConnection(client *socket.Socket, db *gorm.DB) (success bool, username string, isModerator bool) {
	// Checks if we have auth data in the connection
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		fmt.Println("No auth data provided in handshake!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing auth data"})
		return false, "", false
	}

	// Check if authorization token exists
	_, exists := authData["authorization"].(string)
	if !exists {
		fmt.Println("No authorization token provided in handshake!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing authorization token"})
		return false, "", false
	}

	// Decode JWT to get the user's email
	email, err := middleware.Socketio_JWT_decoder(authData)
	if err != nil {
		fmt.Println("Error decoding JWT:", err)
		client.Emit("error", gin.H{
			"error": "Authentication failed: invalid JWT. Remember to set it on the 'Authorization' field and with the 'Bearer ' prefix.",
		})
		return false, "", false
	}

	// Fetch username from database using the email
	var user models.User
	result := db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		fmt.Println("Error fetching user from database:", result.Error)
		client.Emit("error", gin.H{"error": "Authentication failed: could not find user"})
		return false, "", false
	}

	username = user.ProfileUsername

	// The moderator flag lives on the game profile
	isModerator, err = utils.IsModerator(db, username)
	if err != nil {
		fmt.Println("Error fetching game profile from database:", err)
		client.Emit("error", gin.H{"error": "Authentication failed: could not check game profile"})
		return false, "", false
	}

	return true, username, isModerator
}
