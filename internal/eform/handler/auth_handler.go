package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/service"
)

// AuthHandler serves registration, login and token refresh.
type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register creates an account and returns a token pair.
// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, tokens, err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			BadRequest(c, err.Error())
		case errors.Is(err, service.ErrEmailTaken):
			Conflict(c, err.Error())
		default:
			InternalError(c, "Failed to register: "+err.Error())
		}
		return
	}

	Created(c, gin.H{"user": user, "tokens": tokens})
}

// Login exchanges credentials for a token pair.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "No account is registered under this email")
		case errors.Is(err, service.ErrInvalidCredentials):
			Unauthorized(c, err.Error())
		default:
			InternalError(c, "Failed to log in: "+err.Error())
		}
		return
	}

	Success(c, gin.H{"user": user, "tokens": tokens})
}

// Refresh rotates the refresh token and issues a new access token.
// POST /refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			Unauthorized(c, err.Error())
			return
		}
		InternalError(c, "Failed to refresh token: "+err.Error())
		return
	}

	Success(c, tokens)
}
