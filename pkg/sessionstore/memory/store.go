package memory

import (
	"sync"

	"codeberg.org/miketth/layoutfix/pkg/switcher"
)

type SessionStore struct {
	lock     sync.RWMutex
	sessions map[string]switcher.SessionState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]switcher.SessionState),
	}
}

func (s *SessionStore) GetSession(name string) (switcher.SessionState, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	state, ok := s.sessions[name]
	return state, ok, nil
}

func (s *SessionStore) SetSession(name string, state switcher.SessionState) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sessions[name] = state
	return nil
}

func (s *SessionStore) DeleteSession(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.sessions, name)
	return nil
}

func (s *SessionStore) Close() error {
	return nil
}
