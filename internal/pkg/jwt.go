package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ContentFlow/internal/model"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	DefaultTokenTTL = 24 * time.Hour
	accessSubject   = "access"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer HS256 签发与校验
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue 返回 token 及其过期时间
func (t *TokenIssuer) Issue(id model.Identity) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   accessSubject,
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse 校验签名与过期时间，并要求 role 为合法角色
func (t *TokenIssuer) Parse(tokenStr string) (*model.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(accessSubject),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims := token.Claims.(*Claims)
	role, err := model.ParseRole(claims.Role)
	if err != nil || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return &model.Identity{ID: claims.UserID, Email: claims.Email, Role: role}, nil
}
