package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

// memStore is an in-memory credential store with the same atomicity as the
// Postgres one: FindOrCreate and MarkUsed are single critical sections.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	tokens map[string]*domain.MagicToken
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[int64]*domain.User),
		tokens: make(map[string]*domain.MagicToken),
	}
}

func (s *memStore) FindOrCreate(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	s.nextID++
	u := &domain.User{ID: s.nextID, Email: email, CreatedAt: time.Now()}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, userID int64, value string, ttl time.Duration) (*domain.MagicToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now()
	mt := &domain.MagicToken{
		ID:        s.nextID,
		UserID:    userID,
		Value:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.tokens[value] = mt
	cp := *mt
	return &cp, nil
}

func (s *memStore) FindByValue(_ context.Context, value string) (*domain.MagicToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mt, ok := s.tokens[value]
	if !ok {
		return nil, domain.ErrMagicTokenNotFound
	}
	cp := *mt
	return &cp, nil
}

func (s *memStore) MarkUsed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mt := range s.tokens {
		if mt.ID != id {
			continue
		}
		if mt.Used {
			return domain.ErrTokenAlreadyUsed
		}
		now := time.Now()
		mt.Used = true
		mt.UsedAt = &now
		return nil
	}
	return domain.ErrMagicTokenNotFound
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) tokensFor(userID int64) []*domain.MagicToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.MagicToken
	for _, mt := range s.tokens {
		if mt.UserID == userID {
			cp := *mt
			out = append(out, &cp)
		}
	}
	return out
}
