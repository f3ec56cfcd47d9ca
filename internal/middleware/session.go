package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quiz/internal/response"
)

// SessionLookup reports whether an exam session is still held server-side.
type SessionLookup interface {
	HasSession(sessionID string) bool
}

// CheckActiveSession rejects a valid token whose session was reset or purged.
// Must run after RequireExamSession.
func CheckActiveSession(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if !sessions.HasSession(claims.SessionID()) {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionNotFound)
			return
		}

		c.Next()
	}
}
