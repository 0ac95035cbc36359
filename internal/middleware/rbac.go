package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

// RequireAdminRoles lets through admins holding one of roles. It must run
// after RequireAudience(…, models.AudienceAdmin).
func RequireAdminRoles(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Type != models.AudienceAdmin {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted"))
			c.Abort()
			return
		}
		c.Next()
	}
}
