package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
	"github.com/noah-isme/step-lms-api/pkg/response"
)

// Role groups used by the router.
var (
	PlacementManagers = []models.UserRole{models.RolePrincipal, models.RoleAdmin}
	HomeroomStaff     = []models.UserRole{models.RolePrincipal, models.RoleAdmin, models.RoleHomeroomTeacher}
	AccountManagers   = []models.UserRole{models.RoleAdmin, models.RolePrincipal}
)

// RequireRoles lets the request through only when the authenticated role is
// one of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
