package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ContentFlow/internal/model"
	"ContentFlow/internal/service"
)

type AuthAPI interface {
	Signup(ctx context.Context, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Logout(ctx context.Context, caller model.Identity) error
}

type AuthHandler struct {
	svc    AuthAPI
	logger *slog.Logger
}

// CredentialsReq 注册/登录请求体
type CredentialsReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(svc AuthAPI, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Signup 注册接口，新用户角色固定为 user
func (h *AuthHandler) Signup(c *gin.Context) {
	var req CredentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please provide a valid email and password")
		return
	}

	res, err := h.svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err, "Server error during signup")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login 登录接口
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please provide a valid email and password")
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err, "Server error during login")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Logout(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "Server error during logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me 返回当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": model.PublicUser{ID: id.ID, Email: id.Email, Role: id.Role}})
}
