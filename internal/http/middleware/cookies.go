package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikhel0k/JurBot/internal/config"
)

// Cookie names of the auth token pair.
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
)

// SetAccessCookie sets the access-token cookie with the configured
// lifetime. Secure outside development, httponly and lax everywhere.
func SetAccessCookie(c *gin.Context, token string, cfg config.Config) {
	setTokenCookie(c, CookieAccessToken, token, int(cfg.AccessTokenTTL.Seconds()), cfg)
}

// SetRefreshCookie sets the refresh-token cookie.
func SetRefreshCookie(c *gin.Context, token string, cfg config.Config) {
	setTokenCookie(c, CookieRefreshToken, token, int(cfg.RefreshTokenTTL.Seconds()), cfg)
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(c *gin.Context, cfg config.Config) {
	setTokenCookie(c, CookieAccessToken, "", -1, cfg)
	setTokenCookie(c, CookieRefreshToken, "", -1, cfg)
}

func setTokenCookie(c *gin.Context, name, value string, maxAge int, cfg config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", !cfg.IsDevelopment(), true)
}
