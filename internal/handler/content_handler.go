package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ContentFlow/internal/model"
	"ContentFlow/internal/service"
)

type ContentAPI interface {
	List(ctx context.Context, caller model.Identity, p service.ListParams) (*model.ContentPage, error)
	Create(ctx context.Context, caller model.Identity, title, description string) (*model.ContentView, error)
	Decide(ctx context.Context, caller model.Identity, id string, status model.Status) (*model.ContentView, error)
	Stats(ctx context.Context, caller model.Identity) (*model.Stats, error)
	Recent(ctx context.Context, caller model.Identity) ([]model.ContentView, error)
}

type ContentHandler struct {
	svc    ContentAPI
	logger *slog.Logger
}

type CreateContentReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func NewContentHandler(svc ContentAPI, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{svc: svc, logger: logger}
}

// Create 提交内容，初始状态 pending
func (h *ContentHandler) Create(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req CreateContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Title and description are required")
		return
	}

	content, err := h.svc.Create(c.Request.Context(), id, req.Title, req.Description)
	if err != nil {
		writeError(c, h.logger, err, "Server error creating content")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Content created successfully",
		"content": content,
	})
}

// queryInt 取前导整数，"2abc" 得 2；没有数字时返回 0，由 service 按缺省处理
func queryInt(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// List 分页列表，普通用户只返回自己的内容
func (h *ContentHandler) List(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	page := queryInt(c.Query("page"))
	limit := queryInt(c.Query("limit"))

	res, err := h.svc.List(c.Request.Context(), id, service.ListParams{
		Page:    page,
		Limit:   limit,
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
	})
	if err != nil {
		writeError(c, h.logger, err, "Server error fetching content")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ContentHandler) Approve(c *gin.Context) {
	h.decide(c, model.StatusApproved, "Content approved successfully", "Server error approving content")
}

func (h *ContentHandler) Reject(c *gin.Context) {
	h.decide(c, model.StatusRejected, "Content rejected successfully", "Server error rejecting content")
}

func (h *ContentHandler) decide(c *gin.Context, status model.Status, okMsg, failMsg string) {
	id, ok := caller(c)
	if !ok {
		return
	}

	content, err := h.svc.Decide(c.Request.Context(), id, c.Param("id"), status)
	if err != nil {
		writeError(c, h.logger, err, failMsg)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": okMsg,
		"content": content,
	})
}

// Stats 管理员统计
func (h *ContentHandler) Stats(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, "Server error fetching statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Recent 最近审核记录
func (h *ContentHandler) Recent(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	list, err := h.svc.Recent(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, "Server error fetching recent activity")
		return
	}
	c.JSON(http.StatusOK, list)
}
