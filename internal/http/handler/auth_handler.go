package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/domain"
	"github.com/mikhel0k/JurBot/internal/http/middleware"
	"github.com/mikhel0k/JurBot/internal/service"
)

// AuthHandler exposes the two-step registration and login endpoints.
type AuthHandler struct {
	Auth *service.AuthService
	Cfg  config.Config
}

func NewAuthHandler(auth *service.AuthService, cfg config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, Cfg: cfg}
}

// Register starts a registration and returns the confirmation handle.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		PhoneNumber string `json:"phone_number" binding:"required"`
		FullName    string `json:"full_name" binding:"required"`
		Password    string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	handle, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		FullName:    req.FullName,
		Password:    req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jti": handle})
}

// ConfirmRegister finishes a registration and sets the token cookies.
func (h *AuthHandler) ConfirmRegister(c *gin.Context) {
	handle, code, ok := bindConfirm(c)
	if !ok {
		return
	}

	pair, err := h.Auth.ConfirmRegistration(c.Request.Context(), handle, code)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAccessCookie(c, pair.AccessToken, h.Cfg)
	middleware.SetRefreshCookie(c, pair.RefreshToken, h.Cfg)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Login starts a login and returns the confirmation handle.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	handle, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jti": handle})
}

// ConfirmLogin finishes a login, sets the token cookies and reports
// whether the user already has a company.
func (h *AuthHandler) ConfirmLogin(c *gin.Context) {
	handle, code, ok := bindConfirm(c)
	if !ok {
		return
	}

	pair, message, err := h.Auth.ConfirmLogin(c.Request.Context(), handle, code)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAccessCookie(c, pair.AccessToken, h.Cfg)
	middleware.SetRefreshCookie(c, pair.RefreshToken, h.Cfg)
	c.JSON(http.StatusOK, gin.H{"status": message})
}

// Logout invalidates the refresh record, if any, and clears both
// cookies. Always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if refresh, err := c.Cookie(middleware.CookieRefreshToken); err == nil {
		h.Auth.Logout(c.Request.Context(), refresh)
	}

	middleware.ClearAuthCookies(c, h.Cfg)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func bindConfirm(c *gin.Context) (handle, code string, ok bool) {
	var req struct {
		JTI  string `json:"jti" binding:"required"`
		Code string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return "", "", false
	}
	return req.JTI, req.Code, true
}

func respondBadRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":             "invalid_request",
		"error_description": "Invalid request payload.",
	})
}

// respondError maps the service error taxonomy onto HTTP responses. The
// payloads deliberately never say which field or check failed.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "already_exists",
			"error_description": "Already exists.",
		})
	case errors.Is(err, domain.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_code",
			"error_description": "Invalid code.",
		})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "Unauthorized.",
		})
	case errors.Is(err, domain.ErrNoCompany):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "no_company",
			"error_description": service.MsgNoCompany,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "Not found.",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Internal server error.",
		})
	}
}
