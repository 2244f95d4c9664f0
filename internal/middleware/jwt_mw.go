package middleware

import (
	"errors"
	"log"
	"net/http"

	"auth_gateway/internal/gateway"
	"auth_gateway/internal/model"
	"auth_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentityHandler is a handler that receives the verified caller as a parameter
type IdentityHandler func(c *gin.Context, identity model.AuthenticatedIdentity)

// Authenticator guards the service's own routes with the same checks the
// forward-auth endpoint applies: valid access token, existing and unblocked user.
type Authenticator struct {
	auth   gateway.Authenticator
	policy service.RolePolicy
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(auth gateway.Authenticator, policy service.RolePolicy) *Authenticator {
	return &Authenticator{auth: auth, policy: policy}
}

// Authenticated wraps next so it only runs for a verified caller
func (a *Authenticator) Authenticated(next IdentityHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := a.authenticate(c)
		if !ok {
			return
		}
		next(c, identity)
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (model.AuthenticatedIdentity, bool) {
	token, source := gateway.ExtractCredential(c.Request.Header, c.Request.URL.RequestURI())
	if source == gateway.SourceNone {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "access denied"})
		return model.AuthenticatedIdentity{}, false
	}

	user, _, err := a.auth.Authenticate(c.Request.Context(), token)
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return model.AuthenticatedIdentity{}, false
	case errors.Is(err, service.ErrAccountBlocked):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "account blocked"})
		return model.AuthenticatedIdentity{}, false
	case err != nil:
		log.Printf("Error authenticating request: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "failed to authenticate"})
		return model.AuthenticatedIdentity{}, false
	}
	return model.NewAuthenticatedIdentity(user), true
}
