// Package memory 进程内存储，用于本地开发（STORE_DRIVER=memory）和测试，重启即丢失
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

// Store 同时实现 ContentStore / UserStore / SessionStore
type Store struct {
	mu       sync.RWMutex
	contents map[string]model.Content
	users    map[string]model.User
	sessions map[string]session
	now      func() time.Time
}

type session struct {
	token     string
	expiresAt time.Time
}

func New() *Store {
	return &Store{
		contents: make(map[string]model.Content),
		users:    make(map[string]model.User),
		sessions: make(map[string]session),
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Create(_ context.Context, c *model.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contents[c.ID]; ok {
		return repository.ErrDuplicate
	}
	s.contents[c.ID] = cloneContent(*c)
	return nil
}

func matches(c *model.Content, q repository.ListQuery) bool {
	if q.OwnerID != "" && c.CreatedBy != q.OwnerID {
		return false
	}
	if q.Status != "" && c.Status != q.Status {
		return false
	}
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(c.Title), kw) && !strings.Contains(strings.ToLower(c.Description), kw) {
			return false
		}
	}
	return true
}

func (s *Store) List(_ context.Context, q repository.ListQuery) ([]model.Content, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []model.Content
	for _, c := range s.contents {
		if matches(&c, q) {
			all = append(all, cloneContent(c))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := min(q.Offset, len(all))
	end := len(all)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(all))
	}
	return append([]model.Content{}, all[start:end]...), total, nil
}

func (s *Store) Decide(_ context.Context, id string, d repository.Decision) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	by := d.ApprovedBy
	at := d.ApprovedAt
	c.Status = d.Status
	c.ApprovedBy = &by
	c.ApprovedAt = &at
	c.UpdatedAt = at
	s.contents[id] = c

	out := cloneContent(c)
	return &out, nil
}

func (s *Store) CountByStatus(context.Context) (model.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sc model.StatusCounts
	for _, c := range s.contents {
		sc.Total++
		switch c.Status {
		case model.StatusPending:
			sc.Pending++
		case model.StatusApproved:
			sc.Approved++
		case model.StatusRejected:
			sc.Rejected++
		}
	}
	return sc, nil
}

func (s *Store) MonthlySince(_ context.Context, since time.Time) ([]model.MonthlyStat, error) {
	s.mu.RLock()
	counts := make(map[model.MonthKey]int64)
	for _, c := range s.contents {
		if c.CreatedAt.Before(since) {
			continue
		}
		t := c.CreatedAt.UTC()
		counts[model.MonthKey{Year: t.Year(), Month: int(t.Month()), Status: c.Status}]++
	}
	s.mu.RUnlock()

	out := make([]model.MonthlyStat, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.MonthlyStat{ID: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Status < b.Status
	})
	return out, nil
}

func (s *Store) RecentDecided(_ context.Context, limit int) ([]model.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var decided []model.Content
	for _, c := range s.contents {
		if c.Status.IsDecision() && c.ApprovedAt != nil {
			decided = append(decided, cloneContent(c))
		}
	}
	sort.Slice(decided, func(i, j int) bool {
		return decided[i].ApprovedAt.After(*decided[j].ApprovedAt)
	})
	if len(decided) > limit {
		decided = decided[:limit]
	}
	if decided == nil {
		decided = []model.Content{}
	}
	return decided, nil
}

func cloneContent(c model.Content) model.Content {
	if c.ApprovedBy != nil {
		by := *c.ApprovedBy
		c.ApprovedBy = &by
	}
	if c.ApprovedAt != nil {
		at := *c.ApprovedAt
		c.ApprovedAt = &at
	}
	return c
}
