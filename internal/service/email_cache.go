package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ContentFlow/internal/repository"
)

const (
	DefaultEmailCacheSize = 1024
	DefaultEmailCacheTTL  = 10 * time.Minute
)

// EmailResolver 解析 userID -> email。email 注册后不可修改，可以放心缓存
type EmailResolver struct {
	users repository.UserStore
	cache *expirable.LRU[string, string]
}

func NewEmailResolver(users repository.UserStore, size int, ttl time.Duration) *EmailResolver {
	if size <= 0 {
		size = DefaultEmailCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultEmailCacheTTL
	}
	return &EmailResolver{
		users: users,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Resolve 先查缓存，未命中的 id 批量回源
func (r *EmailResolver) Resolve(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	var misses []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if email, ok := r.cache.Get(id); ok {
			out[id] = email
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	found, err := r.users.FindEmails(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, email := range found {
		r.cache.Add(id, email)
		out[id] = email
	}
	return out, nil
}

// Remember 写入已知的映射，例如刚注册或刚登录的用户
func (r *EmailResolver) Remember(id, email string) {
	if id != "" && email != "" {
		r.cache.Add(id, email)
	}
}
