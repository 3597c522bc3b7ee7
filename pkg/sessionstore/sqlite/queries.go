package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Session struct {
	Name     string
	Source   string
	Text     string
	Position int64
}

const getSession = `
select name, source, text, position
from sessions
where name = ?`

// GetSession returns sql.ErrNoRows if there is no session with that name.
func (q *Queries) GetSession(ctx context.Context, name string) (Session, error) {
	var s Session
	err := q.db.QueryRowContext(ctx, getSession, name).Scan(&s.Name, &s.Source, &s.Text, &s.Position)
	return s, err
}

const setSession = `
insert into sessions (name, source, text, position)
values (?, ?, ?, ?)
on conflict (name) do update set source     = excluded.source,
                                 text       = excluded.text,
                                 position   = excluded.position,
                                 updated_at = current_timestamp`

type SetSessionParams struct {
	Name     string
	Source   string
	Text     string
	Position int64
}

func (q *Queries) SetSession(ctx context.Context, arg SetSessionParams) error {
	_, err := q.db.ExecContext(ctx, setSession, arg.Name, arg.Source, arg.Text, arg.Position)
	return err
}

const deleteSession = `delete from sessions where name = ?`

func (q *Queries) DeleteSession(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, name)
	return err
}

const dumpTables = `
select sql
from sqlite_master
where type = 'table'
order by name`

func (q *Queries) DumpTables(ctx context.Context) ([]*string, error) {
	return q.dump(ctx, dumpTables)
}

const dumpRest = `
select sql
from sqlite_master
where type != 'table'
order by name`

func (q *Queries) DumpRest(ctx context.Context) ([]*string, error) {
	return q.dump(ctx, dumpRest)
}

func (q *Queries) dump(ctx context.Context, query string) ([]*string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*string
	for rows.Next() {
		var s *string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}

	return items, rows.Err()
}
