package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/http/handler"
	httpmiddleware "github.com/mikhel0k/JurBot/internal/http/middleware"
	"github.com/mikhel0k/JurBot/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, authHandler *handler.AuthHandler, companyHandler *handler.CompanyHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/register/confirm", authHandler.ConfirmRegister)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/login/confirm", authHandler.ConfirmLogin)
		authGroup.POST("/logout", authHandler.Logout)
	}

	companyGroup := r.Group("/company", authMiddleware.Authenticate)
	{
		companyGroup.POST("", companyHandler.Create)
		companyGroup.GET("", companyHandler.Get)
		companyGroup.PATCH("", companyHandler.Update)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
