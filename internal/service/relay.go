package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrRelayFull   = errors.New("event relay queue full")
	ErrRelayClosed = errors.New("event relay stopped")
)

const (
	DefaultRelayQueue   = 256
	DefaultRelayRetries = 3
)

// EventRelay 进程内 outbox：Publish 只入队，Run 在后台投递给下游，失败按间隔重试
type EventRelay struct {
	next    EventPublisher
	queue   chan ModerationEvent
	retries int
	backoff time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewEventRelay(next EventPublisher, size int, logger *slog.Logger) *EventRelay {
	if size <= 0 {
		size = DefaultRelayQueue
	}
	return &EventRelay{
		next:    next,
		queue:   make(chan ModerationEvent, size),
		retries: DefaultRelayRetries,
		backoff: 500 * time.Millisecond,
		logger:  logger.With(slog.String("component", "event_relay")),
	}
}

// Publish 队列满或 Run 已退出时直接返回错误，不阻塞请求
func (r *EventRelay) Publish(_ context.Context, ev ModerationEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	select {
	case r.queue <- ev:
		return nil
	default:
		return ErrRelayFull
	}
}

// Run 阻塞直到 ctx 取消；之后拒绝新事件，并把队列里剩余的事件投递完。
// ctx 应在所有调用 Publish 的请求结束后再取消。
func (r *EventRelay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.closed = true
			r.mu.Unlock()
			r.drain()
			return
		case ev := <-r.queue:
			r.deliver(ctx, ev)
		}
	}
}

func (r *EventRelay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-r.queue:
			r.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (r *EventRelay) deliver(ctx context.Context, ev ModerationEvent) {
	var err error
	for attempt := 1; attempt <= r.retries; attempt++ {
		if err = r.next.Publish(ctx, ev); err == nil {
			return
		}
		if attempt == r.retries {
			break
		}
		select {
		case <-ctx.Done():
			// 关闭阶段不再等待，剩余次数立即重试
		case <-time.After(r.backoff):
		}
	}
	r.logger.ErrorContext(ctx, "deliver moderation event failed",
		slog.String("type", string(ev.Type)),
		slog.String("content_id", ev.ContentID),
		slog.Int("attempts", r.retries),
		slog.String("error", err.Error()),
	)
}
