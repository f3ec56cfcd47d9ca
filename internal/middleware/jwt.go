package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
	// SessionCookie carries the exam session token for the HTML pages.
	SessionCookie = "exam_session"
)

// RequireExamSession validates the exam session token and aborts with 401
// when it is missing or invalid. Used by the JSON API and WebSocket routes.
func RequireExamSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := TokenFromRequest(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// LoadExamSession attaches claims when a valid token is present and never
// aborts. HTML pages use it and decide themselves where to redirect.
func LoadExamSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := TokenFromRequest(c); tokenStr != "" {
			if claims, err := authService.ValidateToken(tokenStr); err == nil {
				c.Set(ContextKeyClaims, claims)
			}
		}
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// TokenFromRequest looks for the token in the Authorization header, then the
// session cookie, then the ?token= query used by WebSocket upgrades.
func TokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	return c.Query("token")
}

// SessionIDFromContext returns the session ID of the validated token.
func SessionIDFromContext(c *gin.Context) (string, error) {
	claims := GetClaims(c)
	if claims == nil {
		return "", fmt.Errorf("no exam session claims in context")
	}
	return claims.SessionID(), nil
}
