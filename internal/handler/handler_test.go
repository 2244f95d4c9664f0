package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auth_gateway/internal/gateway"
	"auth_gateway/internal/middleware"
	"auth_gateway/internal/model"
	"auth_gateway/internal/repository/repotest"
	"auth_gateway/internal/service"
	"auth_gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repo   *repotest.MemoryUserRepository
	tokens *utils.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := repotest.NewMemoryUserRepository()
	tokens := utils.NewTokenIssuer("access-secret", time.Minute, "refresh-secret", time.Hour)
	policy := service.NewRolePolicy([]string{model.RoleMarketing})
	authService := service.NewAuthService(repo, service.NewReferralLinker(repo), tokens, nil, bcrypt.MinCost)
	accountService := service.NewAccountService(repo, policy, bcrypt.MinCost)
	endpoint := gateway.NewEndpoint(gateway.NewRouteAuthorizer(gateway.DefaultOpenRoutes("/auth")), authService)

	router := gin.New()
	group := router.Group("/auth")
	NewAuthHandler(authService, endpoint).RegisterAuthRoutes(group)
	NewAccountHandler(accountService).RegisterAccountRoutes(group, middleware.NewAuthenticator(authService, policy))

	return &testServer{router: router, repo: repo, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func authHeader(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (s *testServer) register(t *testing.T, email, role, partnerCode string) int {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", gin.H{
		"firstName": "John", "lastName": "Doe", "email": email, "password": "pw123456",
		"role": role, "partnerCode": partnerCode,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return int(decode(t, w)["id"].(float64))
}

func (s *testServer) login(t *testing.T, email string) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/login", gin.H{"email": email, "password": "pw123456"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

func (s *testServer) accessToken(t *testing.T, email string) string {
	t.Helper()
	return s.login(t, email)["token"].(string)
}

func verifyHeader(uri, method, token string) http.Header {
	h := http.Header{
		HeaderForwardedURI:    []string{uri},
		HeaderForwardedMethod: []string{method},
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func TestScenario_RegisterLoginVerify(t *testing.T) {
	s := newTestServer(t)
	registration := gin.H{"firstName": "John", "lastName": "Doe", "email": "john@x.com", "password": "pw", "role": "user"}

	w := s.do(t, http.MethodPost, "/auth/register", registration, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["id"])

	w = s.do(t, http.MethodPost, "/auth/register", registration, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already used", decode(t, w)["message"])

	w = s.do(t, http.MethodPost, "/auth/login", gin.H{"email": "john@x.com", "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode(t, w)
	assert.NotEmpty(t, login["token"])
	assert.NotEmpty(t, login["refreshToken"])
	user := login["user"].(map[string]any)
	assert.EqualValues(t, 1, user["id"])
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user, "restaurantId")

	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/orders", http.MethodGet, login["token"].(string)))
	require.Equal(t, http.StatusOK, w.Code)
	var identity map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get(HeaderUser)), &identity))
	assert.EqualValues(t, 1, identity["id"])
	assert.Equal(t, "user", identity["role"])
	assert.Equal(t, "john@x.com", identity["email"])
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/register", gin.H{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/register", gin.H{
		"firstName": "J", "lastName": "D", "email": "j@x.com", "password": "pw123456", "role": "admin",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid role", decode(t, w)["message"])
}

func TestRegister_PartnerCode(t *testing.T) {
	s := newTestServer(t)
	partnerID := s.register(t, "partner@x.com", model.RoleDeliveryman, "")
	partnerCode := s.repo.Raw(partnerID).PartnerCode

	w := s.do(t, http.MethodPost, "/auth/register", gin.H{
		"firstName": "J", "lastName": "D", "email": "j@x.com", "password": "pw123456",
		"role": model.RoleUser, "partnerCode": partnerCode,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid partner code", decode(t, w)["message"])

	id := s.register(t, "k@x.com", model.RoleDeliveryman, partnerCode)
	require.NotNil(t, s.repo.Raw(id).PartnerID)
	assert.Equal(t, partnerID, *s.repo.Raw(id).PartnerID)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "john@x.com", model.RoleUser, "")

	wrongPassword := s.do(t, http.MethodPost, "/auth/login", gin.H{"email": "john@x.com", "password": "nope"}, nil)
	unknownEmail := s.do(t, http.MethodPost, "/auth/login", gin.H{"email": "ghost@x.com", "password": "pw123456"}, nil)
	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, decode(t, wrongPassword)["message"], decode(t, unknownEmail)["message"])

	_, err := s.repo.ToggleBlocked(context.Background(), id)
	require.NoError(t, err)
	blocked := s.do(t, http.MethodPost, "/auth/login", gin.H{"email": "john@x.com", "password": "pw123456"}, nil)
	assert.Equal(t, http.StatusBadRequest, blocked.Code)
	assert.Equal(t, "account blocked", decode(t, blocked)["message"])
}

func TestVerify_Outcomes(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "john@x.com", model.RoleUser, "")
	token := s.accessToken(t, "john@x.com")

	w := s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/auth/login", http.MethodPost, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderUser))

	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/auth/login/../../orders/42", http.MethodPost, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access denied", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/orders", http.MethodGet, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access denied", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/orders", http.MethodGet, "garbage"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid token", decode(t, w)["message"])

	_, err := s.repo.ToggleBlocked(context.Background(), id)
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/orders", http.MethodGet, token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "account blocked", decode(t, w)["message"])
	assert.Empty(t, w.Header().Get(HeaderUser))
}

func TestVerify_WebSocketProtocolCredential(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "john@x.com", model.RoleUser, "")
	token := s.accessToken(t, "john@x.com")

	header := verifyHeader("/chat", http.MethodGet, "")
	header.Set("Sec-WebSocket-Protocol", "access_token, "+token)
	w := s.do(t, http.MethodGet, "/auth/verify", nil, header)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderUser))
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "john@x.com", model.RoleUser, "")
	login := s.login(t, "john@x.com")
	oldRefresh := login["refreshToken"].(string)

	w := s.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": oldRefresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.NotEqual(t, oldRefresh, body["refreshToken"])

	w = s.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": oldRefresh}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decode(t, w), "error")

	w = s.do(t, http.MethodPost, "/auth/refresh", gin.H{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSelfService(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "john@x.com", model.RoleUser, "")
	token := s.accessToken(t, "john@x.com")

	w := s.do(t, http.MethodGet, "/auth/user", nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)
	assert.Equal(t, "john@x.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "refreshToken")

	w = s.do(t, http.MethodPut, "/auth/update", gin.H{"firstName": "Johnny"}, authHeader(token))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/auth/update", gin.H{"currentPassword": "wrong", "newPassword": "another-pw"}, authHeader(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/auth/update", gin.H{"currentPassword": "pw123456", "newPassword": "pw2"}, authHeader(token))
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/auth/login", gin.H{"email": "john@x.com", "password": "pw2"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/auth/user", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodDelete, "/auth/delete", nil, authHeader(token))
	assert.Equal(t, http.StatusOK, w.Code)

	// The deleted account's token no longer authenticates
	w = s.do(t, http.MethodGet, "/auth/user", nil, authHeader(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrivilegedRoutes(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "john@x.com", model.RoleUser, "")
	s.register(t, "m@x.com", model.RoleMarketing, "")
	userToken := s.accessToken(t, "john@x.com")
	adminToken := s.accessToken(t, "m@x.com")

	w := s.do(t, http.MethodGet, "/auth/users", nil, authHeader(userToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/auth/users", nil, authHeader(adminToken))
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "refreshToken")
	}

	w = s.do(t, http.MethodGet, "/auth/user/abc", nil, authHeader(adminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/auth/user/999", nil, authHeader(adminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/auth/suspend", gin.H{"userId": userID}, authHeader(adminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user suspended", decode(t, w)["message"])

	// The suspended user's still unexpired token is refused at once
	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/orders", http.MethodGet, userToken))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/auth/suspend", gin.H{"userId": userID}, authHeader(adminToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user reactivated", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/auth/verify", nil, verifyHeader("/orders", http.MethodGet, userToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/auth/suspend", gin.H{"userId": 999}, authHeader(adminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/auth/delete/999", nil, authHeader(adminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/auth/delete/1", nil, authHeader(userToken))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodDelete, "/auth/delete/1", nil, authHeader(adminToken))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdate_OtherUser(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "john@x.com", model.RoleUser, "")
	janeID := s.register(t, "jane@x.com", model.RoleUser, "")
	s.register(t, "m@x.com", model.RoleMarketing, "")

	w := s.do(t, http.MethodPut, "/auth/update", gin.H{"userId": janeID, "lastName": "X"}, authHeader(s.accessToken(t, "john@x.com")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/auth/update", gin.H{"userId": janeID, "email": "john@x.com"}, authHeader(s.accessToken(t, "m@x.com")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already used", decode(t, w)["message"])

	w = s.do(t, http.MethodPut, "/auth/update", gin.H{"userId": 999, "lastName": "X"}, authHeader(s.accessToken(t, "m@x.com")))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
