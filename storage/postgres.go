package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/awantoch/portflow/model"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStorage implements Storage on PostgreSQL through lib/pq.
type PostgresStorage struct {
	db *sql.DB
}

var _ Storage = (*PostgresStorage)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS invocations (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL,
	idx INTEGER NOT NULL,
	operation TEXT NOT NULL,
	identifier TEXT NOT NULL DEFAULT '',
	invocation_identifier TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	output JSONB,
	output_url TEXT NOT NULL DEFAULT '',
	started_at BIGINT NOT NULL,
	ended_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS invocations_run_id ON invocations (run_id);
`

// NewPostgresStorage connects to dsn and creates the schema.
func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) SaveInvocation(ctx context.Context, inv *model.Invocation) error {
	output, err := marshalOutput(inv.Output)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO invocations (id, run_id, idx, operation, identifier, invocation_identifier, status, error, output, output_url, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, error=EXCLUDED.error, output=EXCLUDED.output,
	output_url=EXCLUDED.output_url, invocation_identifier=EXCLUDED.invocation_identifier, ended_at=EXCLUDED.ended_at
`, inv.ID.String(), inv.RunID.String(), inv.Index, inv.Operation, inv.Identifier, inv.InvocationIdentifier,
		string(inv.Status), inv.Error, output, inv.OutputURL, inv.StartedAt.UnixNano(), inv.EndedAt.UnixNano())
	return err
}

func (s *PostgresStorage) GetInvocation(ctx context.Context, id uuid.UUID) (*model.Invocation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id=$1`, id.String())
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (s *PostgresStorage) ListInvocations(ctx context.Context, filter ListFilter) ([]*model.Invocation, error) {
	query, args := postgresListQuery(filter)
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

// postgresListQuery builds the filtered list query with numbered placeholders.
func postgresListQuery(filter ListFilter) (string, []any) {
	query := `SELECT ` + invocationColumns + ` FROM invocations WHERE TRUE`
	var args []any
	if filter.RunID != uuid.Nil {
		args = append(args, filter.RunID.String())
		query += fmt.Sprintf(` AND run_id=$%d`, len(args))
	}
	if filter.Operation != "" {
		args = append(args, filter.Operation)
		query += fmt.Sprintf(` AND operation=$%d`, len(args))
	}
	query += ` ORDER BY started_at DESC, idx ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	return query, args
}

func (s *PostgresStorage) DeleteInvocation(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invocations WHERE id=$1`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
