package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/service"
)

// CheckSingleDeviceSession rejects student requests whose token no longer
// owns the session slot in Redis. Admin tokens pass through untouched, as
// does a request that never went through the JWT middleware (the auth
// middleware rejects those first).
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		switch {
		case claims == nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		case claims.TokenType != service.TokenTypeStudent:
			c.Next()
		case authService.ValidateStudentSession(c.Request.Context(), claims.UserID, claims.ID) != nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		default:
			c.Next()
		}
	}
}
