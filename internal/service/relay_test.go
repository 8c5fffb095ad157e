package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []ModerationEvent
}

func (p *flakyPublisher) Publish(_ context.Context, ev ModerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("temporary")
	}
	p.got = append(p.got, ev)
	return nil
}

func (p *flakyPublisher) delivered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestEventRelay_RetriesAndDrains(t *testing.T) {
	next := &flakyPublisher{failures: 1}
	r := NewEventRelay(next, 4, discardLogger())
	r.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	for _, id := range []string{"c1", "c2"} {
		if err := r.Publish(context.Background(), ModerationEvent{Type: EventApproved, ContentID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for next.delivered() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if next.delivered() != 2 {
		t.Fatalf("delivered = %d", next.delivered())
	}
	if next.got[0].ContentID != "c1" {
		t.Errorf("order = %+v", next.got)
	}
	if next.calls != 3 {
		t.Errorf("calls = %d, want 3 (one retry)", next.calls)
	}
}

func TestEventRelay_Full(t *testing.T) {
	r := NewEventRelay(&flakyPublisher{}, 1, discardLogger())
	if err := r.Publish(context.Background(), ModerationEvent{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Publish(context.Background(), ModerationEvent{}); !errors.Is(err, ErrRelayFull) {
		t.Errorf("err = %v, want ErrRelayFull", err)
	}
}

func TestEventRelay_DrainOnShutdown(t *testing.T) {
	next := &flakyPublisher{}
	r := NewEventRelay(next, 8, discardLogger())
	for i := 0; i < 3; i++ {
		_ = r.Publish(context.Background(), ModerationEvent{Type: EventSubmitted})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)

	if next.delivered() != 3 {
		t.Errorf("delivered = %d, want 3", next.delivered())
	}
}

// blockingPublisher 第一次投递阻塞到 release 关闭
type blockingPublisher struct {
	flakyPublisher
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingPublisher) Publish(ctx context.Context, ev ModerationEvent) error {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return p.flakyPublisher.Publish(ctx, ev)
}

func TestEventRelay_PublishDuringShutdown(t *testing.T) {
	next := &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	r := NewEventRelay(next, 8, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	if err := r.Publish(context.Background(), ModerationEvent{Type: EventSubmitted, ContentID: "c1"}); err != nil {
		t.Fatalf("publish c1: %v", err)
	}
	<-next.entered

	// 取消后、Run 退出前到达的事件仍需投递
	cancel()
	if err := r.Publish(context.Background(), ModerationEvent{Type: EventApproved, ContentID: "c2"}); err != nil {
		t.Fatalf("publish c2: %v", err)
	}
	close(next.release)
	<-done

	if next.delivered() != 2 {
		t.Fatalf("delivered = %d, want 2", next.delivered())
	}
	if err := r.Publish(context.Background(), ModerationEvent{ContentID: "c3"}); !errors.Is(err, ErrRelayClosed) {
		t.Errorf("publish after stop: err = %v, want ErrRelayClosed", err)
	}
	if next.delivered() != 2 {
		t.Errorf("late event delivered")
	}
}
