package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/auth"
)

const (
	// ContextKeyClaims is the context key for the verified token claims.
	ContextKeyClaims = "claims"
)

// AuthMiddleware validates JWT bearer tokens. Rejected credentials abort the
// request before any state is touched.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyRequest(c, authService, logger)
		if !ok {
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// AdminMiddleware validates the token and additionally requires the admin
// role.
func AdminMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyRequest(c, authService, logger)
		if !ok {
			return
		}
		if !claims.HasRole(auth.RoleAdmin) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin privileges required"})
			c.Abort()
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func verifyRequest(c *gin.Context, authService *auth.Service, logger *zerolog.Logger) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		logger.Debug().Msg("missing authorization header")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization header"})
		c.Abort()
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Debug().Msg("invalid authorization header format")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		logger.Debug().Err(err).Msg("invalid token")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		c.Abort()
		return nil, false
	}
	return claims, true
}

// LoggerMiddleware logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
