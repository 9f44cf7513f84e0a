package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

const (
	ContextUserID = "user_id"
	ContextUser   = "user"
	ContextEmail  = "user_email"
)

type AuthMiddleware struct {
	authService service.AuthService
	log         logger.Logger
}

func NewAuthMiddleware(authService service.AuthService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         log,
	}
}

// RequireAuth admits a valid bearer token. A user with 2FA enabled also
// needs a token issued after code verification.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.authenticate(true)
}

// RequireToken admits any valid bearer token. It guards the endpoints that
// complete 2FA verification.
func (m *AuthMiddleware) RequireToken() gin.HandlerFunc {
	return m.authenticate(false)
}

func (m *AuthMiddleware) authenticate(twoFactor bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		user, claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			m.log.Debug("Rejected token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		if twoFactor && !service.Admit(user, claims) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Two-factor verification required"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextEmail, user.Email)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on a websocket handshake, so the token query parameter is accepted too.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}
