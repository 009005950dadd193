package user

import (
	"context"
	"sync"
	"time"

	"examreg/internal/guard"
)

// MemoryStore keeps accounts in process memory. It backs tests and
// deployments without postgres.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]*User
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]*User),
		nextID: 1,
	}
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = s.nextID
	s.nextID++
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	copied := *u
	s.users[u.ID] = &copied
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Phone != "" && u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByIDCard(_ context.Context, idCard string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.IDCard != "" && u.IDCard == idCard {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.UpdatedAt = time.Now()
	copied := *u
	s.users[u.ID] = &copied
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	for _, u := range s.users {
		stats.TotalCount++
		switch u.Role {
		case guard.RoleAdmin:
			stats.AdminCount++
		default:
			stats.UserCount++
		}
		switch u.Status {
		case StatusActive:
			stats.ActiveCount++
		case StatusDisabled:
			stats.DisabledCount++
		}
	}
	return stats, nil
}
