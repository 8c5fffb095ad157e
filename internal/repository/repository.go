// Package repository 定义内容与用户的存储接口，mongo 与 mysql 两种实现分别在子包中
package repository

import (
	"context"
	"errors"
	"time"

	"ContentFlow/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ListQuery 列表查询条件，零值字段表示不过滤
type ListQuery struct {
	OwnerID string
	Status  model.Status
	Keyword string
	Offset  int
	Limit   int
}

// Decision 一次审核写入，status / approvedBy / approvedAt 同时落库
type Decision struct {
	Status     model.Status
	ApprovedBy string
	ApprovedAt time.Time
}

type ContentStore interface {
	Create(ctx context.Context, c *model.Content) error
	List(ctx context.Context, q ListQuery) ([]model.Content, int64, error)
	// Decide 不存在时返回 ErrNotFound
	Decide(ctx context.Context, id string, d Decision) (*model.Content, error)
	CountByStatus(ctx context.Context) (model.StatusCounts, error)
	// MonthlySince 按 (year, month, status) 聚合 createdAt >= since 的记录，按时间升序
	MonthlySince(ctx context.Context, since time.Time) ([]model.MonthlyStat, error)
	RecentDecided(ctx context.Context, limit int) ([]model.Content, error)
}

type UserStore interface {
	// Create email 重复时返回 ErrDuplicate
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindEmails 批量解析 id -> email，不存在的 id 不出现在结果中
	FindEmails(ctx context.Context, ids []string) (map[string]string, error)
}

// SessionStore 登录态存储，每个用户只保留最新一次签发的 token
type SessionStore interface {
	Save(ctx context.Context, userID, token string, ttl time.Duration) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}
