package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockContentStore struct {
	createFn  func(ctx context.Context, c *model.Content) error
	listFn    func(ctx context.Context, q repository.ListQuery) ([]model.Content, int64, error)
	decideFn  func(ctx context.Context, id string, d repository.Decision) (*model.Content, error)
	countFn   func(ctx context.Context) (model.StatusCounts, error)
	monthlyFn func(ctx context.Context, since time.Time) ([]model.MonthlyStat, error)
	recentFn  func(ctx context.Context, limit int) ([]model.Content, error)
}

func (m *mockContentStore) Create(ctx context.Context, c *model.Content) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *mockContentStore) List(ctx context.Context, q repository.ListQuery) ([]model.Content, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, 0, nil
}

func (m *mockContentStore) Decide(ctx context.Context, id string, d repository.Decision) (*model.Content, error) {
	if m.decideFn != nil {
		return m.decideFn(ctx, id, d)
	}
	return nil, repository.ErrNotFound
}

func (m *mockContentStore) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return model.StatusCounts{}, nil
}

func (m *mockContentStore) MonthlySince(ctx context.Context, since time.Time) ([]model.MonthlyStat, error) {
	if m.monthlyFn != nil {
		return m.monthlyFn(ctx, since)
	}
	return nil, nil
}

func (m *mockContentStore) RecentDecided(ctx context.Context, limit int) ([]model.Content, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit)
	}
	return nil, nil
}

// memUserStore 内存实现，email 唯一
type memUserStore struct {
	mu         sync.Mutex
	byID       map[string]*model.User
	emailCalls int
}

func newMemUserStore(users ...*model.User) *memUserStore {
	s := &memUserStore{byID: map[string]*model.User{}}
	for _, u := range users {
		s.byID[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) FindEmails(_ context.Context, ids []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emailCalls++
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			out[id] = u.Email
		}
	}
	return out, nil
}

type memSessionStore struct {
	mu     sync.Mutex
	tokens map[string]string
	getErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{tokens: map[string]string{}}
}

func (s *memSessionStore) Save(_ context.Context, userID, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

func (s *memSessionStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	tok, ok := s.tokens[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return tok, nil
}

func (s *memSessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

type recordingPublisher struct {
	events []ModerationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev ModerationEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type countingRecorder struct {
	submitted int
	decided   map[model.Status]int
}

func (r *countingRecorder) Submitted() { r.submitted++ }

func (r *countingRecorder) Decided(st model.Status) {
	if r.decided == nil {
		r.decided = map[model.Status]int{}
	}
	r.decided[st]++
}
