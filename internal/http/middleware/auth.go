package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/jwt"
	"github.com/mikhel0k/JurBot/internal/service"
)

const (
	userIDKey    = "userID"
	companyIDKey = "companyID"
)

// Auth resolves the caller's identity from the token cookies. A valid
// access token is the fast path and touches neither store; otherwise the
// refresh cookie is exchanged through the auth service and the fresh
// access token is set on the response.
type Auth struct {
	Auth   *service.AuthService
	Tokens *jwt.Generator
	Cfg    config.Config
}

func NewAuth(authService *service.AuthService, tokens *jwt.Generator, cfg config.Config) *Auth {
	return &Auth{Auth: authService, Tokens: tokens, Cfg: cfg}
}

// Authenticate attaches the caller's user id and company id to the
// context, refreshing the access cookie when needed.
func (m *Auth) Authenticate(c *gin.Context) {
	if token, err := c.Cookie(CookieAccessToken); err == nil && token != "" {
		if claims, err := m.Tokens.Parse(token); err == nil {
			if userID, err := claims.UserID(); err == nil {
				setIdentity(c, userID, claims.CompanyID)
				c.Next()
				return
			}
		}
	}

	refresh, err := c.Cookie(CookieRefreshToken)
	if err != nil || refresh == "" {
		abortUnauthorized(c)
		return
	}

	refreshed, err := m.Auth.RefreshAccessToken(c.Request.Context(), refresh)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	SetAccessCookie(c, refreshed.AccessToken, m.Cfg)
	setIdentity(c, refreshed.UserID, refreshed.CompanyID)
	c.Next()
}

// RequireCompany rejects authenticated callers that have not created a
// company yet. Mount after Authenticate on company-scoped resources.
func (m *Auth) RequireCompany(c *gin.Context) {
	if _, ok := GetCompanyID(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":             "no_company",
			"error_description": service.MsgNoCompany,
		})
		return
	}
	c.Next()
}

func setIdentity(c *gin.Context, userID int64, companyID *int64) {
	c.Set(userIDKey, userID)
	if companyID != nil {
		c.Set(companyIDKey, *companyID)
	}
}

// GetUserID returns the authenticated user id set by Authenticate.
func GetUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}

// GetCompanyID returns the caller's company id. The second return is
// false when the user has no company yet.
func GetCompanyID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(companyIDKey)
	if !ok {
		return 0, false
	}
	companyID, ok := value.(int64)
	return companyID, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthorized",
		"error_description": "Unauthorized.",
	})
}
