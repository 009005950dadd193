package guard

import (
	"context"
	"sync"
)

// CredentialStore persists sessions keyed by username so they survive
// restarts. Load returns (nil, nil) when no session is stored for the
// username.
type CredentialStore interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context, username string) (*Session, error)
	Clear(ctx context.Context, username string) error
}

// MemoryStore keeps sessions in process memory. It backs tests and
// deployments without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Identity.Username] = &session
	return nil
}

func (s *MemoryStore) Load(_ context.Context, username string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[username]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Clear(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, username)
	return nil
}
