package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsletter/internal/core/apperror"
	"newsletter/internal/domain/auth"
)

// AuthHandler exposes the admin login endpoint.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// Login validates credentials and issues a bearer token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.NewValidation("invalid login payload"))
		return
	}

	token, expiresAt, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_ = c.Error(apperror.NewUnauthorized("invalid username or password"))
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
