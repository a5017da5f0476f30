package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Navjot67/tolls-app/internal/domain/repository"
	"github.com/Navjot67/tolls-app/pkg/response"
)

// Auth validates the Bearer token against the user store. A token is
// only valid for the most recent login; logging in again invalidates
// the previous one. It sets userEmail and userName in the Gin context
// on success.
func Auth(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}

		user, ok := users.GetByToken(token)
		if !ok {
			response.Error[any](c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		c.Set("userEmail", user.Email)
		c.Set("userName", user.Name)
		c.Next()
	}
}
