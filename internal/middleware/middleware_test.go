package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"auth_gateway/internal/model"
	"auth_gateway/internal/service"
	"auth_gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, accessToken string) (*model.User, *utils.JWTClaims, error) {
	args := m.Called(ctx, accessToken)
	user, _ := args.Get(0).(*model.User)
	claims, _ := args.Get(1).(*utils.JWTClaims)
	return user, claims, args.Error(2)
}

func newRouter(auth *mockAuthenticator) *gin.Engine {
	authn := NewAuthenticator(auth, service.NewRolePolicy([]string{model.RoleMarketing}))
	router := gin.New()
	router.GET("/me", authn.Authenticated(func(c *gin.Context, identity model.AuthenticatedIdentity) {
		c.JSON(http.StatusOK, identity)
	}))
	router.GET("/admin", authn.Privileged(func(c *gin.Context, identity model.AuthenticatedIdentity) {
		c.Status(http.StatusNoContent)
	}))
	return router
}

func serve(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticated(t *testing.T) {
	user := &model.User{ID: 7, Email: "a@x.com", Role: model.RoleUser}

	tests := []struct {
		name       string
		token      string
		user       *model.User
		err        error
		wantStatus int
	}{
		{"no credential", "", nil, nil, http.StatusUnauthorized},
		{"valid", "good", user, nil, http.StatusOK},
		{"invalid token", "bad", nil, service.ErrTokenInvalid, http.StatusUnauthorized},
		{"blocked", "blocked", nil, service.ErrAccountBlocked, http.StatusUnauthorized},
		{"store failure", "boom", nil, errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(mockAuthenticator)
			if tt.token != "" {
				auth.On("Authenticate", mock.Anything, tt.token).Return(tt.user, nil, tt.err)
			}

			w := serve(newRouter(auth), "/me", tt.token)

			assert.Equal(t, tt.wantStatus, w.Code)
			auth.AssertExpectations(t)
		})
	}
}

func TestAuthenticated_QueryToken(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("Authenticate", mock.Anything, "qtok").Return(&model.User{ID: 3, Role: model.RoleUser}, nil, nil)

	w := serve(newRouter(auth), "/me?token=qtok", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":3`)
}

func TestPrivileged(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("Authenticate", mock.Anything, "user").Return(&model.User{ID: 1, Role: model.RoleUser}, nil, nil)
	auth.On("Authenticate", mock.Anything, "marketer").Return(&model.User{ID: 2, Role: model.RoleMarketing}, nil, nil)
	router := newRouter(auth)

	assert.Equal(t, http.StatusForbidden, serve(router, "/admin", "user").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "/admin", "marketer").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "/admin", "").Code)
}
