package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"accounthub/api/internal/security"
	"accounthub/api/internal/service"
)

const (
	ContextUser  = "current_user"
	ContextToken = "access_token"
)

// Auth verifies the bearer token, requires a live token row for it, and
// attaches the user plus the raw token to the request.
func Auth(issuer service.TokenIssuer, users service.UserStore, tokens service.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := issuer.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		live, err := tokens.Exists(c.Request.Context(), userID, security.HashSessionToken(tokenStr))
		if err != nil || !live {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_revoked"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		c.Set(ContextToken, tokenStr)
		c.Set(ContextUser, user)

		c.Next()
	}
}
