package stats

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wins.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileRepositoryReadsExistingFormat(t *testing.T) {
	path := writeFile(t, `{
  "total_rounds": 7,
  "111": {"name": "철수", "wins": 4},
  "222": {"name": "영희", "wins": 2}
}`)

	snap, err := NewFileRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, snap.TotalRounds)
	assert.Equal(t, "철수", snap.Players["111"].Name)
	assert.Equal(t, 4, snap.Wins("111"))
	assert.Equal(t, 2, snap.Wins("222"))
}

func TestFileRepositoryBackfillsTotalRounds(t *testing.T) {
	path := writeFile(t, `{"1": {"name": "a", "wins": 4}, "2": {"name": "b", "wins": 3}, "3": {"name": "c", "wins": 0}}`)

	snap, err := NewFileRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalRounds, "7 wins over 3 winners per round")
}

func TestFileRepositoryWritesFlatDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wins.json")
	repo := NewFileRepository(path)

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	snap.Players["42"] = models.PlayerRecord{Name: "Deft", Wins: 2}
	snap.TotalRounds = 2
	require.NoError(t, repo.Save(context.Background(), snap))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `2`, string(doc["total_rounds"]))
	assert.JSONEq(t, `{"name":"Deft","wins":2}`, string(doc["42"]))

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileRepositoryCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"total_rounds":`,
		"bad player":      `{"1": "winner"}`,
		"bad round count": `{"total_rounds": "many"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewFileRepository(writeFile(t, content)).Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestFileRepositoryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileRepository(filepath.Join(t.TempDir(), "wins.json")).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
