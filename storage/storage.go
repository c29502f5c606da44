package storage

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/awantoch/portflow/config"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/model"
	"github.com/awantoch/portflow/utils"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an invocation does not exist.
var ErrNotFound = errors.New("invocation not found")

// Storage persists invocation history.
type Storage interface {
	SaveInvocation(ctx context.Context, inv *model.Invocation) error
	GetInvocation(ctx context.Context, id uuid.UUID) (*model.Invocation, error)
	ListInvocations(ctx context.Context, filter ListFilter) ([]*model.Invocation, error)
	DeleteInvocation(ctx context.Context, id uuid.UUID) error
	Close() error
}

// ListFilter narrows ListInvocations. Zero values match everything; Limit 0 means no limit.
type ListFilter struct {
	RunID     uuid.UUID
	Operation string
	Limit     int
}

// NewStorage returns the store selected by cfg. Unknown drivers are an error;
// a driver that fails to open falls back to memory with a warning.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", constants.StorageDriverMemory:
		return NewMemoryStorage(), nil
	case constants.StorageDriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = constants.DefaultSQLiteDSN
		}
		store, err := NewSqliteStorage(dsn)
		if err != nil {
			utils.WarnCtx(ctx, "Failed to create sqlite storage, using in-memory fallback", "error", err)
			return NewMemoryStorage(), nil
		}
		return store, nil
	case constants.StorageDriverPostgres:
		store, err := NewPostgresStorage(cfg.DSN)
		if err != nil {
			utils.WarnCtx(ctx, "Failed to create postgres storage, using in-memory fallback", "error", err)
			return NewMemoryStorage(), nil
		}
		return store, nil
	default:
		return nil, utils.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// sortInvocations orders newest first, then by item index within a batch.
func sortInvocations(out []*model.Invocation) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].Index < out[j].Index
	})
}
