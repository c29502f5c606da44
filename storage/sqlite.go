package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/awantoch/portflow/model"
	"github.com/awantoch/portflow/utils"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SqliteStorage implements Storage using SQLite as the backend.
type SqliteStorage struct {
	db *sql.DB
}

var _ Storage = (*SqliteStorage)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS invocations (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	operation TEXT NOT NULL,
	identifier TEXT,
	invocation_identifier TEXT,
	status TEXT NOT NULL,
	error TEXT,
	output JSON,
	output_url TEXT,
	started_at INTEGER NOT NULL,
	ended_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS invocations_run_id ON invocations (run_id);
`

func NewSqliteStorage(dsn string) (*SqliteStorage, error) {
	// Only create parent directories if not using in-memory SQLite (":memory:").
	if dsn != ":memory:" && dsn != "" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, utils.Errorf("failed to create db directory %q: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStorage{db: db}, nil
}

func (s *SqliteStorage) SaveInvocation(ctx context.Context, inv *model.Invocation) error {
	output, err := marshalOutput(inv.Output)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO invocations (id, run_id, idx, operation, identifier, invocation_identifier, status, error, output, output_url, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET status=excluded.status, error=excluded.error, output=excluded.output,
	output_url=excluded.output_url, invocation_identifier=excluded.invocation_identifier, ended_at=excluded.ended_at
`, inv.ID.String(), inv.RunID.String(), inv.Index, inv.Operation, inv.Identifier, inv.InvocationIdentifier,
		string(inv.Status), inv.Error, output, inv.OutputURL, inv.StartedAt.UnixNano(), inv.EndedAt.UnixNano())
	return err
}

func (s *SqliteStorage) GetInvocation(ctx context.Context, id uuid.UUID) (*model.Invocation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id=?`, id.String())
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (s *SqliteStorage) ListInvocations(ctx context.Context, filter ListFilter) ([]*model.Invocation, error) {
	query := `SELECT ` + invocationColumns + ` FROM invocations WHERE 1=1`
	var args []any
	if filter.RunID != uuid.Nil {
		query += ` AND run_id=?`
		args = append(args, filter.RunID.String())
	}
	if filter.Operation != "" {
		query += ` AND operation=?`
		args = append(args, filter.Operation)
	}
	query += ` ORDER BY started_at DESC, idx ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SqliteStorage) DeleteInvocation(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invocations WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SqliteStorage) Close() error {
	return s.db.Close()
}
