package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// tokenSource extracts the raw JWT from a request, or returns an error when
// none is present.
type tokenSource func(c *gin.Context) (string, error)

var errNoToken = errors.New("token missing")

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errNoToken
	}
	return parts[1], nil
}

// queryToken reads the JWT from ?token=. Browsers cannot attach headers to
// WebSocket upgrade requests, so the monitor stream authenticates this way.
func queryToken(c *gin.Context) (string, error) {
	token := c.Query("token")
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

// requireRole builds a middleware that validates the JWT from the given
// source and enforces the expected token type.
func requireRole(authService *service.AuthService, source tokenSource, want service.TokenType) gin.HandlerFunc {
	roleErr := response.ErrAdminAccessOnly
	if want == service.TokenTypeStudent {
		roleErr = response.ErrStudentAccessOnly
	}

	return func(c *gin.Context) {
		tokenStr, err := source(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if claims.TokenType != want {
			response.AbortFail(c, http.StatusForbidden, roleErr)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireStudentJWT validates a student JWT from the Authorization header.
func RequireStudentJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireRole(authService, bearerToken, service.TokenTypeStudent)
}

// RequireAdminJWT validates an admin JWT from the Authorization header.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireRole(authService, bearerToken, service.TokenTypeAdmin)
}

// RequireAdminWSAuth validates an admin JWT from the token query param,
// for WebSocket upgrade requests.
func RequireAdminWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return requireRole(authService, queryToken, service.TokenTypeAdmin)
}

// GetClaims retrieves the JWT claims from the Gin context, or nil when the
// request did not pass through an auth middleware.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := val.(*service.Claims)
	return claims
}
