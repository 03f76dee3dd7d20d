package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/mcdev12/champdraft/go/internal/sqlutil"
)

// PostgresSchema creates the stats tables when missing.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS player_stats (
    participant_id TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    wins           INTEGER NOT NULL DEFAULT 0 CHECK (wins >= 0)
);
CREATE TABLE IF NOT EXISTS round_stats (
    id           SMALLINT PRIMARY KEY CHECK (id = 1),
    total_rounds INTEGER NOT NULL DEFAULT 0 CHECK (total_rounds >= 0)
);`

// PostgresRepository stores the snapshot in Postgres through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps an existing pool. The caller keeps ownership of it.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// OpenPostgres connects, pings and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create stats schema: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Load(ctx context.Context) (models.StatsSnapshot, error) {
	snap := models.NewStatsSnapshot()

	rows, err := r.pool.Query(ctx, `SELECT participant_id, name, wins FROM player_stats`)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("query player stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var rec models.PlayerRecord
		if err := rows.Scan(&id, &rec.Name, &rec.Wins); err != nil {
			return models.StatsSnapshot{}, fmt.Errorf("scan player stats: %w", err)
		}
		snap.Players[id] = rec
	}
	if err := rows.Err(); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("iterate player stats: %w", err)
	}

	err = r.pool.QueryRow(ctx, `SELECT total_rounds FROM round_stats WHERE id = 1`).Scan(&snap.TotalRounds)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.StatsSnapshot{}, fmt.Errorf("query round stats: %w", err)
	}
	return snap, nil
}

func (r *PostgresRepository) Save(ctx context.Context, snapshot models.StatsSnapshot) error {
	return sqlutil.RunPgx(ctx, r.pool, func(tx pgx.Tx) error {
		ids := make([]string, 0, len(snapshot.Players))
		batch := &pgx.Batch{}
		for id, rec := range snapshot.Players {
			ids = append(ids, id)
			batch.Queue(`
				INSERT INTO player_stats (participant_id, name, wins)
				VALUES ($1, $2, $3)
				ON CONFLICT (participant_id) DO UPDATE
				SET name = EXCLUDED.name, wins = EXCLUDED.wins`,
				id, rec.Name, rec.Wins)
		}
		batch.Queue(`DELETE FROM player_stats WHERE NOT (participant_id = ANY($1))`, ids)
		batch.Queue(`
			INSERT INTO round_stats (id, total_rounds) VALUES (1, $1)
			ON CONFLICT (id) DO UPDATE SET total_rounds = EXCLUDED.total_rounds`,
			snapshot.TotalRounds)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save stats: %w", err)
		}
		return nil
	})
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
