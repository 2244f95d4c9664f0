package handler

import (
	"errors"
	"log"
	"net/http"

	"auth_gateway/internal/gateway"
	"auth_gateway/internal/model"
	"auth_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	HeaderForwardedURI    = "X-Forwarded-Uri"
	HeaderForwardedMethod = "X-Forwarded-Method"
	HeaderUser            = "X-User"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service  service.AuthService
	endpoint *gateway.Endpoint
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, endpoint *gateway.Endpoint) *AuthHandler {
	return &AuthHandler{service: s, endpoint: endpoint}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request: " + err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyUsed),
			errors.Is(err, service.ErrInvalidPartnerCode),
			errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			log.Printf("Error during registration: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to register user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      user.ID,
		"message": "user registered successfully",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request: " + err.Error()})
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountBlocked):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			log.Printf("Error during login: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "login successful",
		"token":        result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         model.NewLoginUserView(result.User),
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token required"})
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrAccountBlocked):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			log.Printf("Error during token refresh: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh token"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "token refreshed",
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Verify is the forward-auth decision consulted by the reverse proxy for every request
func (h *AuthHandler) Verify(c *gin.Context) {
	decision, err := h.endpoint.Verify(c.Request.Context(), gateway.ForwardedRequest{
		URI:    c.GetHeader(HeaderForwardedURI),
		Method: c.GetHeader(HeaderForwardedMethod),
		Header: c.Request.Header,
	})
	if err != nil {
		log.Printf("Error during verify: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to verify request"})
		return
	}

	switch decision.Outcome {
	case gateway.OutcomePublicMatch:
		c.JSON(http.StatusOK, gin.H{"message": "public route"})
	case gateway.OutcomeNoCredential:
		c.JSON(http.StatusUnauthorized, gin.H{"message": "access denied"})
	case gateway.OutcomeInvalidToken:
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid token"})
	case gateway.OutcomeUserMissingOrBlocked:
		c.JSON(http.StatusUnauthorized, gin.H{"message": "account blocked"})
	case gateway.OutcomeAuthorized:
		c.Header(HeaderUser, decision.Identity)
		c.JSON(http.StatusOK, gin.H{"message": "authorized"})
	default:
		log.Printf("Unexpected verify outcome: %v", decision.Outcome)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to verify request"})
	}
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/refresh", h.Refresh)
	rg.GET("/verify", h.Verify)
}
