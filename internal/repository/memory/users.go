package memory

import (
	"context"
	"time"

	"ContentFlow/internal/model"
	"ContentFlow/internal/repository"
)

// Users UserStore 视图，避免与 ContentStore.Create 方法名冲突
type Users struct{ s *Store }

func (s *Store) Users() Users { return Users{s: s} }

func (u Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u Users) FindByID(_ context.Context, id string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u Users) FindEmails(_ context.Context, ids []string) (map[string]string, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if user, ok := u.s.users[id]; ok {
			out[id] = user.Email
		}
	}
	return out, nil
}

// Sessions SessionStore 视图，过期的 token 视为不存在
type Sessions struct{ s *Store }

func (s *Store) Sessions() Sessions { return Sessions{s: s} }

func (ss Sessions) Save(_ context.Context, userID, token string, ttl time.Duration) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	ss.s.sessions[userID] = session{token: token, expiresAt: ss.s.now().Add(ttl)}
	return nil
}

func (ss Sessions) Get(_ context.Context, userID string) (string, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	sess, ok := ss.s.sessions[userID]
	if !ok || !ss.s.now().Before(sess.expiresAt) {
		return "", repository.ErrNotFound
	}
	return sess.token, nil
}

func (ss Sessions) Delete(_ context.Context, userID string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	delete(ss.s.sessions, userID)
	return nil
}

var (
	_ repository.ContentStore = (*Store)(nil)
	_ repository.UserStore    = Users{}
	_ repository.SessionStore = Sessions{}
)
