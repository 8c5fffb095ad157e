package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter 单实例内存限流，按客户端 IP 分桶，空闲的 IP 定期清理
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	perSecond rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time

	// OnDenied 每次拒绝时调用，用于计数
	OnDenied func(ip string)
}

type LimiterOption func(*IPLimiter)

// WithRate burst 为桶容量，perSecond 为每秒补充的令牌数
func WithRate(perSecond float64, burst int) LimiterOption {
	return func(l *IPLimiter) {
		l.perSecond = rate.Limit(perSecond)
		l.burst = burst
	}
}

func WithTTL(d time.Duration) LimiterOption {
	return func(l *IPLimiter) { l.ttl = d }
}

func WithOnDenied(fn func(ip string)) LimiterOption {
	return func(l *IPLimiter) { l.OnDenied = fn }
}

// NewIPLimiter 启动后台清理协程，ctx 取消时退出
func NewIPLimiter(ctx context.Context, opts ...LimiterOption) *IPLimiter {
	l := &IPLimiter{
		visitors:  make(map[string]*visitor),
		perSecond: 5,
		burst:     10,
		ttl:       5 * time.Minute,
		now:       time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	go l.cleanup(ctx)
	return l
}

func (l *IPLimiter) allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	allowed := v.limiter.Allow()
	l.mu.Unlock()

	if !allowed && l.OnDenied != nil {
		l.OnDenied(ip)
	}
	return allowed
}

func (l *IPLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict(l.now())
		}
	}
}

func (l *IPLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
		}
	}
}

func (l *IPLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Middleware 超出限额返回 429
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", "30")
			abortWithMessage(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
