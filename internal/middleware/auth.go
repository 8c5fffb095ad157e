package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ContentFlow/internal/model"
	"ContentFlow/internal/service"
)

const (
	ContextUserIDKey   = "user_id"
	ContextIdentityKey = "identity"
)

// Authenticator 由 service.AuthService 实现
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// AuthMiddleware 解析 Bearer token，校验通过后注入 identity
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithMessage(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abortWithMessage(c, http.StatusUnauthorized, "Token is not valid")
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if service.KindOf(err) == service.KindAuthentication {
				abortWithMessage(c, http.StatusUnauthorized, service.PublicMessage(err, "Token is not valid"))
				return
			}
			_ = c.Error(err)
			abortWithMessage(c, http.StatusInternalServerError, "Server error during authentication")
			return
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, id.ID)
		c.Set(ContextIdentityKey, *id)
		c.Next()
	}
}

// RequireRoles 角色不在允许集合内返回 403，必须挂在 AuthMiddleware 之后
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abortWithMessage(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		abortWithMessage(c, http.StatusForbidden, "Access denied. Insufficient permissions.")
	}
}

func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}
