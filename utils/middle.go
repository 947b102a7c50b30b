package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	CtxUserID = "user_id"
)

// Authenticate reads the session token from the cookie or a Bearer header
// and, when valid, stores the user id in the context. Requests without a
// valid token pass through anonymously.
func Authenticate(issuer *TokenIssuer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			c.Next()
			return
		}
		claims, err := issuer.VerifyToken(token)
		if err == nil {
			c.Set(CtxUserID, claims.UserId)
		}
		c.Next()
	}
}

// AuthMiddleware rejects requests that Authenticate did not identify.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			Fail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c *gin.Context) (uint64, bool) {
	value, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok && id != 0
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
