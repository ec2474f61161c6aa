package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// SessionStore implements repository.SessionRepository. Sessions are held in
// their JSON form so callers never share state with the store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	versions map[string]int
}

var _ repository.SessionRepository = (*SessionStore)(nil)

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string][]byte),
		versions: make(map[string]int),
	}
}

// Get returns a fresh copy of the terminal's session, or a NotFound error.
func (s *SessionStore) Get(_ context.Context, terminalID string) (*domain.Session, error) {
	s.mu.Lock()
	data, ok := s.sessions[terminalID]
	s.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFound("session", terminalID)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save stores sess if the stored version still equals expectedVersion and
// bumps sess to expectedVersion+1. On failure sess keeps the version it had
// before the call.
func (s *SessionStore) Save(_ context.Context, sess *domain.Session, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sess.TerminalID()
	if s.versions[key] != expectedVersion {
		return apperrors.Conflict(fmt.Sprintf("session for terminal %s was modified concurrently", key))
	}

	prevVersion := sess.Version()
	sess.SetVersion(expectedVersion + 1)
	data, err := json.Marshal(sess)
	if err != nil {
		sess.SetVersion(prevVersion)
		return fmt.Errorf("marshal session: %w", err)
	}
	s.sessions[key] = data
	s.versions[key] = expectedVersion + 1
	return nil
}

// Delete drops the terminal's session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(_ context.Context, terminalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, terminalID)
	delete(s.versions, terminalID)
	return nil
}
