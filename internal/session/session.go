// Package session 客户端登录态状态机。状态转换都是纯函数，非法转换返回错误且不修改原状态
package session

import (
	"errors"
	"fmt"

	"ContentFlow/internal/model"
)

type Phase int

const (
	Anonymous Phase = iota
	Authenticating
	Authenticated
	Failed
)

func (p Phase) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State 只有 Authenticated 时 User/Token 有效，只有 Failed 时 Err 有效
type State struct {
	Phase Phase
	User  model.PublicUser
	Token string
	Err   string
}

var ErrInvalidTransition = errors.New("invalid session transition")

func transitionError(from Phase, action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}

// New 初始状态
func New() State {
	return State{Phase: Anonymous}
}

// Restore 从已保存的凭据恢复（例如本地文件），token 为空时回到 anonymous
func Restore(token string, user model.PublicUser) State {
	if token == "" || !user.Role.Valid() {
		return New()
	}
	return State{Phase: Authenticated, User: user, Token: token}
}

// Begin 开始登录/注册；已登录时需要先 Logout
func Begin(s State) (State, error) {
	switch s.Phase {
	case Anonymous, Failed:
		return State{Phase: Authenticating}, nil
	default:
		return s, transitionError(s.Phase, "begin")
	}
}

func Succeed(s State, token string, user model.PublicUser) (State, error) {
	if s.Phase != Authenticating {
		return s, transitionError(s.Phase, "succeed")
	}
	if token == "" || !user.Role.Valid() {
		return s, fmt.Errorf("%w: succeed without a token or with role %q", ErrInvalidTransition, user.Role)
	}
	return State{Phase: Authenticated, User: user, Token: token}, nil
}

func Fail(s State, msg string) (State, error) {
	if s.Phase != Authenticating {
		return s, transitionError(s.Phase, "fail")
	}
	if msg == "" {
		msg = "Authentication failed"
	}
	return State{Phase: Failed, Err: msg}, nil
}

// Logout 任意状态都可以回到 anonymous
func Logout(State) State {
	return New()
}

func ClearError(s State) (State, error) {
	if s.Phase != Failed {
		return s, transitionError(s.Phase, "clear error")
	}
	return New(), nil
}

func (s State) IsAdmin() bool {
	return s.Phase == Authenticated && s.User.Role == model.RoleAdmin
}
