package service

import (
	"errors"
	"fmt"
)

// Kind 错误分类，handler 据此映射 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error Msg 可以直接返回给调用方，Err 只用于日志
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: KindAuthentication, Msg: msg} }
func Forbidden(msg string) error { return &Error{Kind: KindAuthorization, Msg: msg} }
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage 返回可以暴露给调用方的信息，internal 错误使用 fallback
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
