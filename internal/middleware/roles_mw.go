package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Privileged wraps next so it only runs for a verified caller holding a privileged role
func (a *Authenticator) Privileged(next IdentityHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := a.authenticate(c)
		if !ok {
			return
		}
		if !a.policy.IsPrivileged(identity.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "you do not have permission to access this resource"})
			return
		}
		next(c, identity)
	}
}
