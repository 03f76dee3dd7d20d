package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/mcdev12/champdraft/go/internal/sqlutil"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS player_stats (
    participant_id TEXT PRIMARY KEY,
    name           TEXT,
    wins           INTEGER NOT NULL DEFAULT 0 CHECK (wins >= 0)
);
CREATE TABLE IF NOT EXISTS round_stats (
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    total_rounds INTEGER NOT NULL DEFAULT 0 CHECK (total_rounds >= 0)
);`

// SQLiteRepository stores the snapshot in a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and ensures the schema. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create stats schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (models.StatsSnapshot, error) {
	snap := models.NewStatsSnapshot()

	rows, err := r.db.QueryContext(ctx, `SELECT participant_id, name, wins FROM player_stats`)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("query player stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var name sql.NullString
		var wins int
		if err := rows.Scan(&id, &name, &wins); err != nil {
			return models.StatsSnapshot{}, fmt.Errorf("scan player stats: %w", err)
		}
		snap.Players[id] = models.PlayerRecord{Name: sqlutil.FromNullString(name), Wins: wins}
	}
	if err := rows.Err(); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("iterate player stats: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `SELECT total_rounds FROM round_stats WHERE id = 1`).Scan(&snap.TotalRounds)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.StatsSnapshot{}, fmt.Errorf("query round stats: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, snapshot models.StatsSnapshot) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM player_stats`); err != nil {
			return fmt.Errorf("clear player stats: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO player_stats (participant_id, name, wins) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare player insert: %w", err)
		}
		defer stmt.Close()
		for id, rec := range snapshot.Players {
			if _, err := stmt.ExecContext(ctx, id, sqlutil.ToNullString(rec.Name), rec.Wins); err != nil {
				return fmt.Errorf("insert player %s: %w", id, err)
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO round_stats (id, total_rounds) VALUES (1, ?)
			ON CONFLICT (id) DO UPDATE SET total_rounds = excluded.total_rounds`,
			snapshot.TotalRounds)
		if err != nil {
			return fmt.Errorf("save round stats: %w", err)
		}
		return nil
	})
}

// Close closes the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
