package model

import "time"

// Status 内容审核状态
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus 非法值返回 false，调用方按“忽略该过滤条件”处理
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), true
	default:
		return "", false
	}
}

// IsDecision 是否为管理员的审核结果（approved / rejected）
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

type Content struct {
	ID          string     `gorm:"primaryKey;size:36" bson:"_id"`
	Title       string     `gorm:"size:100;not null" bson:"title"`
	Description string     `gorm:"type:text;not null" bson:"description"`
	Status      Status     `gorm:"size:16;not null;default:pending;index:idx_status_approved,priority:1" bson:"status"`
	CreatedBy   string     `gorm:"size:36;not null;index:idx_owner_time,priority:1" bson:"createdBy"`
	ApprovedBy  *string    `gorm:"size:36" bson:"approvedBy,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index;index:idx_owner_time,priority:2" bson:"createdAt"`
	ApprovedAt  *time.Time `gorm:"index:idx_status_approved,priority:2" bson:"approvedAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

// UserRef 关联用户只暴露 email
type UserRef struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// ContentView 接口返回的内容结构，createdBy / approvedBy 已解析为 UserRef
type ContentView struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	CreatedBy   *UserRef   `json:"createdBy"`
	ApprovedBy  *UserRef   `json:"approvedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type ContentPage struct {
	Content    []ContentView `json:"content"`
	Pagination Pagination    `json:"pagination"`
}
