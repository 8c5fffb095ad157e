package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ContentFlow/internal/repository"
)

func newTestRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionRepository(rdb), mr
}

func TestTokenKey(t *testing.T) {
	if got := tokenKey("6f1c"); got != "login:user:token:6f1c" {
		t.Errorf("tokenKey = %q", got)
	}
}

func TestSessionRepository(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing session: err = %v, want ErrNotFound", err)
	}

	if err := repo.Save(ctx, "u1", "tok-1", time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := mr.Get(tokenKey("u1")); got != "tok-1" {
		t.Errorf("stored token = %q", got)
	}
	if ttl := mr.TTL(tokenKey("u1")); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	// 再次登录覆盖旧 token
	if err := repo.Save(ctx, "u1", "tok-2", time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(ctx, "u1")
	if err != nil || got != "tok-2" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err = repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err = repo.Get(ctx, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
	if err = repo.Delete(ctx, "u1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestSessionRepository_Expires(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "u1", "tok", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := repo.Get(ctx, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expired session: err = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_Unavailable(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()
	ctx := context.Background()

	if err := repo.Save(ctx, "u1", "tok", time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Errorf("Save: err = %v, want ErrRedisUnavailable", err)
	}
	_, err := repo.Get(ctx, "u1")
	if !errors.Is(err, ErrRedisUnavailable) || errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get: err = %v, want ErrRedisUnavailable", err)
	}
	if err = repo.Delete(ctx, "u1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Errorf("Delete: err = %v, want ErrRedisUnavailable", err)
	}
}
