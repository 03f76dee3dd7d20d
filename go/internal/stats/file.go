package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

const totalRoundsKey = "total_rounds"

// winnersPerRound backfills total_rounds for files written before it existed.
const winnersPerRound = 3

// FileRepository keeps the snapshot in one JSON document shaped as
// {"total_rounds": n, "<participant id>": {"name": "...", "wins": n}}.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the backing file.
func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) Load(ctx context.Context) (models.StatsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.StatsSnapshot{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", r.path).Msg("stats file not found, starting empty")
		return models.NewStatsSnapshot(), nil
	}
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("read stats file: %w", err)
	}
	return decodeFile(data)
}

func (r *FileRepository) Save(ctx context.Context, snapshot models.StatsSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := make(map[string]any, len(snapshot.Players)+1)
	for id, rec := range snapshot.Players {
		doc[id] = rec
	}
	doc[totalRoundsKey] = snapshot.TotalRounds

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// write then rename so a crash never leaves a truncated file
	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp stats file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close stats file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace stats file: %w", err)
	}
	log.Debug().Str("path", r.path).Int("total_rounds", snapshot.TotalRounds).Msg("stats saved")
	return nil
}

// Close is a no-op.
func (r *FileRepository) Close() error { return nil }

func decodeFile(data []byte) (models.StatsSnapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	snap := models.NewStatsSnapshot()
	for key, value := range raw {
		if key == totalRoundsKey {
			continue
		}
		var rec models.PlayerRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return models.StatsSnapshot{}, fmt.Errorf("%w: player %s: %v", ErrCorrupt, key, err)
		}
		snap.Players[key] = rec
	}

	value, ok := raw[totalRoundsKey]
	if !ok {
		total := 0
		for _, rec := range snap.Players {
			total += rec.Wins
		}
		snap.TotalRounds = total / winnersPerRound
		return snap, nil
	}
	if err := json.Unmarshal(value, &snap.TotalRounds); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("%w: total_rounds: %v", ErrCorrupt, err)
	}
	return snap, nil
}
