package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Tokens live for a day, long enough for a full play session.
const tokenLifetime = 24 * time.Hour

func jwtSecret() []byte {
	return []byte(os.Getenv("KEY"))
}

// GenerateToken issues the JWT handed out on login. The email claim is the
// account identity everywhere else in the server.
func GenerateToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(tokenLifetime).Unix(),
	})
	return token.SignedString(jwtSecret())
}

func decodeToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("token is missing the email claim")
	}
	return email, nil
}

// JWT_decoder extracts the authenticated email from the Authorization header
// of an HTTP request.
func JWT_decoder(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	return decodeToken(header)
}

// Socketio_JWT_decoder extracts the authenticated email from the socket.io
// handshake auth data.
func Socketio_JWT_decoder(authData map[string]interface{}) (string, error) {
	tokenString, ok := authData["authorization"].(string)
	if !ok {
		return "", fmt.Errorf("missing authorization token")
	}
	return decodeToken(tokenString)
}

// AuthRequired is a simple middleware to check the JWT on protected routes.
func AuthRequired(c *gin.Context) {
	email, err := JWT_decoder(c)
	if err != nil {
		// Abort the request with the appropriate error code
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set("email", email)
	// Continue down the chain to handler etc
	c.Next()
}
