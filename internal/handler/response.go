package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ContentFlow/internal/middleware"
	"ContentFlow/internal/model"
	"ContentFlow/internal/service"
)

func statusOf(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError 按错误类型返回 {message}；internal 错误记录原因后只返回通用信息
func writeError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		_ = c.Error(err)
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("route", c.FullPath()),
			slog.String("error", err.Error()),
		)
	}
	c.JSON(statusOf(kind), gin.H{"message": service.PublicMessage(err, fallback)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// caller 从上下文取 identity，鉴权中间件之后一定存在
func caller(c *gin.Context) (model.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
	}
	return id, ok
}
