package middleware

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/security"
)

// RequireAction middleware checks the session role against the capability
// allow-list for an action. Per-agency policy flags may grant the action to
// roles outside the base list.
func RequireAction(action security.Action, flags security.PolicyFlags) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := appctx.GetUser(ctx)
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !security.AllowedWithPolicy(ctx, flags, user.Role, action) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("action", string(action)).
					WithDetail("role", user.Role),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
