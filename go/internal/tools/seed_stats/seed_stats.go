package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mcdev12/champdraft/go/internal/config"
	"github.com/mcdev12/champdraft/go/internal/dbconfig"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/mcdev12/champdraft/go/internal/stats"
)

func main() {
	path := flag.String("file", config.DefaultStatsFile, "wins file to import")
	merge := flag.Bool("merge", false, "add to the stored counts instead of replacing them")
	flag.Parse()
	ctx := context.Background()

	config.LoadDotEnv()

	// 1) Load the wins file
	imported, err := stats.NewFileRepository(*path).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *path, err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "db config: %v\n", err)
		os.Exit(1)
	}
	repo, err := stats.OpenPostgres(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	// 3) Merge with what is already stored
	if *merge {
		existing, err := repo.Load(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load stored stats: %v\n", err)
			os.Exit(1)
		}
		imported = mergeSnapshots(existing, imported)
	}

	// 4) Save
	if err := repo.Save(ctx, imported); err != nil {
		fmt.Fprintf(os.Stderr, "save stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf(
		"Stats seed: players=%d total_rounds=%d merge=%t\n",
		len(imported.Players), imported.TotalRounds, *merge,
	)
}

// mergeSnapshots sums win counts and rounds. Names from add win.
func mergeSnapshots(base, add models.StatsSnapshot) models.StatsSnapshot {
	out := base.Clone()
	out.TotalRounds += add.TotalRounds
	for id, rec := range add.Players {
		cur := out.Players[id]
		cur.Wins += rec.Wins
		if rec.Name != "" {
			cur.Name = rec.Name
		}
		out.Players[id] = cur
	}
	return out
}
