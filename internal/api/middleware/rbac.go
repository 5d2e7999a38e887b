package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// RBAC admits only callers whose token role is one of allowedRoles.
// It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return domain.ErrRoleNotAllowed
			}
			return next(c)
		}
	}
}
