package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ContentFlow/internal/handler"
	"ContentFlow/internal/metrics"
	"ContentFlow/internal/middleware"
	"ContentFlow/internal/model"
)

// Deps 路由依赖，全部由 main 组装
type Deps struct {
	Logger      *slog.Logger
	ClientURL   string
	Auth        handler.AuthAPI
	Gate        middleware.Authenticator
	Content     handler.ContentAPI
	Store       handler.Pinger
	Metrics     *metrics.Metrics
	AuthLimiter *middleware.IPLimiter
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(middleware.RequestLogger(d.Logger))

	auth := handler.NewAuthHandler(d.Auth, d.Logger)
	content := handler.NewContentHandler(d.Content, d.Logger)
	health := handler.NewHealthHandler(d.Store)
	gate := middleware.AuthMiddleware(d.Gate)

	r.GET("/", health.Root)
	r.GET("/api/health", health.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// 认证相关接口
	authGroup := r.Group("/api/auth")
	if d.AuthLimiter != nil {
		authGroup.Use(d.AuthLimiter.Middleware())
	}
	{
		authGroup.POST("/signup", auth.Signup)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/logout", gate, auth.Logout)
		authGroup.GET("/me", gate, auth.Me)
	}

	userOnly := middleware.RequireRoles(model.RoleUser)
	adminOnly := middleware.RequireRoles(model.RoleAdmin)
	anyRole := middleware.RequireRoles(model.RoleUser, model.RoleAdmin)

	// 内容相关接口
	contentGroup := r.Group("/api/content")
	contentGroup.Use(gate)
	{
		contentGroup.POST("", userOnly, content.Create)
		contentGroup.GET("", anyRole, content.List)
		contentGroup.GET("/stats", adminOnly, content.Stats)
		contentGroup.GET("/recent", adminOnly, content.Recent)
		contentGroup.PUT("/:id/approve", adminOnly, content.Approve)
		contentGroup.PUT("/:id/reject", adminOnly, content.Reject)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}
