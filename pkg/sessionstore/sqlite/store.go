package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/sessionstore/sqlite/migrations"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type SessionStore struct {
	db      *sql.DB
	querier *Queries
}

func NewSessionStore(filename string, log *zap.SugaredLogger) (*SessionStore, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SessionStore{
		db:      db,
		querier: New(db),
	}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) GetSession(name string) (switcher.SessionState, bool, error) {
	row, err := s.querier.GetSession(context.Background(), name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return switcher.SessionState{}, false, nil
	case err != nil:
		return switcher.SessionState{}, false, fmt.Errorf("sqlite select: %w", err)
	}

	return switcher.SessionState{
		Source: layouts.Name(row.Source),
		Text:   row.Text,
		Cursor: int(row.Position),
	}, true, nil
}

func (s *SessionStore) SetSession(name string, state switcher.SessionState) error {
	if err := s.querier.SetSession(context.Background(), SetSessionParams{
		Name:     name,
		Source:   string(state.Source),
		Text:     state.Text,
		Position: int64(state.Cursor),
	}); err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}

	return nil
}

func (s *SessionStore) DeleteSession(name string) error {
	if err := s.querier.DeleteSession(context.Background(), name); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}

	return nil
}
