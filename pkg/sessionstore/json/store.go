package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"codeberg.org/miketth/layoutfix/pkg/switcher"
)

type SessionStore struct {
	sessions map[string]switcher.SessionState
	file     *os.File
	lock     sync.Mutex
	dirty    bool
}

func NewSessionStore(filename string) (*SessionStore, error) {
	fileExists := true
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		fileExists = false
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	store := &SessionStore{
		sessions: make(map[string]switcher.SessionState),
		file:     file,
		dirty:    true,
	}

	if fileExists {
		err = store.load()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("load: %w", err)
		}

		store.dirty = false
	}

	return store, nil
}

// Close saves pending changes and closes the file.
func (s *SessionStore) Close() error {
	if err := s.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func (s *SessionStore) load() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, err := s.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	dec := json.NewDecoder(s.file)
	err = dec.Decode(&s.sessions)
	if err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// Flush writes the sessions to disk if anything changed since the last save.
func (s *SessionStore) Flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.dirty {
		return nil
	}

	_, err := s.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err = s.file.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	enc := json.NewEncoder(s.file)
	err = enc.Encode(s.sessions)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.dirty = false

	return nil
}

// SaveLooper flushes every interval until ctx is done, then flushes once more.
func (s *SessionStore) SaveLooper(ctx context.Context, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			err := s.Flush()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}

			return ctx.Err()
		case <-time.After(interval):
			err := s.Flush()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
		}
	}
}

func (s *SessionStore) GetSession(name string) (switcher.SessionState, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, ok := s.sessions[name]
	return state, ok, nil
}

func (s *SessionStore) SetSession(name string, state switcher.SessionState) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sessions[name] = state
	s.dirty = true
	return nil
}

func (s *SessionStore) DeleteSession(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.sessions[name]; ok {
		delete(s.sessions, name)
		s.dirty = true
	}
	return nil
}
