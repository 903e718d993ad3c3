package middleware

import (
	"strings"

	"gameops-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Identity headers are stamped by the auth gateway after token
// verification. Token issuance and verification live outside this service.
const (
	UserIDHeader = "X-User-Id"
	RolesHeader  = "X-User-Roles"

	userIDKey = "identity.user_id"
	rolesKey  = "identity.roles"
)

const (
	RoleUser     = "USER"
	RoleOperator = "OPERATOR"
	RoleAuditor  = "AUDITOR"
	RoleAdmin    = "ADMIN"
)

// Identity extracts the verified caller identity from gateway headers.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID != "" {
			c.Set(userIDKey, userID)
		}

		if raw := c.GetHeader(RolesHeader); raw != "" {
			roles := make([]string, 0, 4)
			for _, role := range strings.Split(raw, ",") {
				if role = strings.TrimSpace(role); role != "" {
					roles = append(roles, strings.ToUpper(role))
				}
			}
			c.Set(rolesKey, roles)
		}

		c.Next()
	}
}

// UserID returns the authenticated caller, or "" when the request is
// anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func roles(c *gin.Context) []string {
	v, ok := c.Get(rolesKey)
	if !ok {
		return nil
	}
	rs, _ := v.([]string)
	return rs
}

// RequireAuth aborts anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			_ = c.Error(errutil.Unauthorized("authentication required", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole aborts unless the caller holds at least one of the given
// roles. ADMIN passes every check.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			_ = c.Error(errutil.Unauthorized("authentication required", nil))
			c.Abort()
			return
		}

		held := roles(c)
		for _, role := range held {
			if role == RoleAdmin {
				c.Next()
				return
			}
			for _, want := range allowed {
				if role == want {
					c.Next()
					return
				}
			}
		}

		_ = c.Error(errutil.Forbidden("insufficient role", nil))
		c.Abort()
	}
}
