package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentFlow/internal/repository"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

const UserTokenPrefix = "login:user:token"

// SessionRepository 每个用户只保留最后一次登录签发的 token
type SessionRepository struct {
	rdb *redis.Client
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func tokenKey(userID string) string {
	return fmt.Sprintf("%s:%s", UserTokenPrefix, userID)
}

func (r *SessionRepository) Save(ctx context.Context, userID, token string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, tokenKey(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get 不存在时返回 repository.ErrNotFound
func (r *SessionRepository) Get(ctx context.Context, userID string) (string, error) {
	token, err := r.rdb.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// Delete 幂等删除
func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
