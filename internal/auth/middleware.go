package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TheB2D/Glass/internal/response"
)

const (
	UserIDKey     = "user_id"
	UsernameKey   = "username"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenFromRequest extracts a bearer token from the Authorization header or,
// for WebSocket upgrades where headers are awkward, the token query
// parameter.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
		return strings.TrimPrefix(h, BearerPrefix)
	}
	return r.URL.Query().Get("token")
}

// RequireAuth returns a Gin middleware validating viewer tokens and stashing
// the caller's identity in the request context.
func (m *Manager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c.Request)
		if token == "" {
			response.Unauthorized(c, "missing token")
			c.Abort()
			return
		}

		claims, err := m.Validate(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
