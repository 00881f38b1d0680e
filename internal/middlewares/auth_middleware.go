package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rohitmehra/OpenMentor/internal/utils"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// AuthMiddleware validates the bearer token and resolves the acting user.
// Websocket upgrades cannot carry headers from the browser, so a token query
// parameter is accepted as a fallback there.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}
	return c.Query("token")
}

// Identity returns the authenticated user id and username placed in the
// context by AuthMiddleware.
func Identity(c *gin.Context) (userID, username string, ok bool) {
	userID = c.GetString(ContextUserID)
	username = c.GetString(ContextUsername)
	if userID == "" || username == "" {
		return "", "", false
	}
	return userID, username, true
}
