package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"auth_gateway/internal/middleware"
	"auth_gateway/internal/model"
	"auth_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account lifecycle requests
type AccountHandler struct {
	service service.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(s service.AccountService) *AccountHandler {
	return &AccountHandler{service: s}
}

func parseUserID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user ID"})
		return 0, false
	}
	return id, true
}

// writeAccountError maps service errors to responses; unknown errors are logged as 500s
func writeAccountError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrEmailAlreadyUsed),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrNothingToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		log.Printf("Error during %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to " + action})
	}
}

func (h *AccountHandler) GetSelf(c *gin.Context, identity model.AuthenticatedIdentity) {
	user, err := h.service.GetUser(c.Request.Context(), identity.UserID)
	if err != nil {
		writeAccountError(c, err, "retrieve user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AccountHandler) GetUserByID(c *gin.Context, _ model.AuthenticatedIdentity) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		writeAccountError(c, err, "retrieve user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AccountHandler) ListUsers(c *gin.Context, _ model.AuthenticatedIdentity) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		writeAccountError(c, err, "retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AccountHandler) Update(c *gin.Context, identity model.AuthenticatedIdentity) {
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request: " + err.Error()})
		return
	}

	if err := h.service.Update(c.Request.Context(), identity, req); err != nil {
		writeAccountError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

func (h *AccountHandler) Suspend(c *gin.Context, _ model.AuthenticatedIdentity) {
	var req model.SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request: " + err.Error()})
		return
	}

	blocked, err := h.service.ToggleSuspend(c.Request.Context(), req.UserID)
	if err != nil {
		writeAccountError(c, err, "suspend user")
		return
	}
	message := "user reactivated"
	if blocked {
		message = "user suspended"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *AccountHandler) DeleteSelf(c *gin.Context, identity model.AuthenticatedIdentity) {
	if err := h.service.Delete(c.Request.Context(), identity.UserID); err != nil {
		writeAccountError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *AccountHandler) DeleteByID(c *gin.Context, _ model.AuthenticatedIdentity) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeAccountError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// RegisterAccountRoutes registers account routes behind authentication
func (h *AccountHandler) RegisterAccountRoutes(rg *gin.RouterGroup, authn *middleware.Authenticator) {
	rg.GET("/user", authn.Authenticated(h.GetSelf))
	rg.PUT("/update", authn.Authenticated(h.Update))
	rg.DELETE("/delete", authn.Authenticated(h.DeleteSelf))

	rg.GET("/users", authn.Privileged(h.ListUsers))
	rg.GET("/user/:id", authn.Privileged(h.GetUserByID))
	rg.PUT("/suspend", authn.Privileged(h.Suspend))
	rg.DELETE("/delete/:id", authn.Privileged(h.DeleteByID))
}
