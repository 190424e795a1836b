package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/security"
)

const roleKey = "role"

// TokenValidator maps a bearer token to its role.
type TokenValidator interface {
	Validate(token string) (security.Role, error)
}

// RequireRole rejects requests without a valid bearer token (401) or whose
// role does not cover required (403).
func RequireRole(validator TokenValidator, required security.Role, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		role, err := validator.Validate(strings.TrimSpace(token))
		if err != nil {
			logger.Auth().Warn("Rejected token", "path", c.FullPath(), "error", err.Error(), "requestId", GetRequestID(c))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if !role.Allows(required) {
			logger.Auth().Warn("Insufficient role", "path", c.FullPath(), "role", role, "required", required)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
			return
		}

		c.Set(roleKey, role)
		c.Next()
	}
}

func GetRole(c *gin.Context) (security.Role, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(security.Role)
	return role, ok
}
