// Package stats persists the win counters and the global round count that feed
// the next session's pick order.
package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/champdraft/go/internal/models"
)

// ErrCorrupt is returned when a stored snapshot cannot be decoded.
var ErrCorrupt = errors.New("stats store is corrupt")

// Repository loads and saves whole snapshots. A store that does not exist yet
// loads as an empty snapshot.
type Repository interface {
	Load(ctx context.Context) (models.StatsSnapshot, error)
	Save(ctx context.Context, snapshot models.StatsSnapshot) error
}

// Store is a Repository holding resources.
type Store interface {
	Repository
	Close() error
}

// Backend names a storage implementation.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Config selects and locates the backend.
type Config struct {
	Backend     Backend
	File        string
	SQLitePath  string
	PostgresDSN string
}

// Open returns the configured store. SQL backends get their schema created.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileRepository(cfg.File), nil
	case BackendSQLite:
		repo, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case BackendPostgres:
		repo, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown stats backend %q", cfg.Backend)
	}
}
