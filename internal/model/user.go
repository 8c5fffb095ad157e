package model

import (
	"fmt"
	"time"
)

// Role 用户角色，只有 user 与 admin 两种
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" bson:"_id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" bson:"email"`
	PasswordHash string    `gorm:"size:255;not null" bson:"password"`
	Role         Role      `gorm:"size:16;not null;default:user" bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

// Identity 经过 token 校验后的调用方身份
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// PublicUser 登录/注册接口返回给前端的用户信息
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role}
}
