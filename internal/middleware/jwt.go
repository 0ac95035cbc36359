package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

// ContextUserKey is the gin context key storing token claims.
const ContextUserKey = "currentUser"

// TokenValidator parses bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.TokenClaims, error)
}

// RequireAudience admits requests carrying a valid token of the given audience.
// A missing or invalid token is UNAUTHENTICATED; a token for another audience is FORBIDDEN.
func RequireAudience(validator TokenValidator, audience models.Audience) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if claims.Type != audience {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token is not valid for this area"))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by RequireAudience.
func CurrentClaims(c *gin.Context) (*models.TokenClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.TokenClaims)
	return claims, ok && claims != nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
