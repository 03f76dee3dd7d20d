package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/champdraft/go/clients/ddragon"
	"github.com/mcdev12/champdraft/go/internal/config"
	"github.com/mcdev12/champdraft/go/internal/dbconfig"
	"github.com/mcdev12/champdraft/go/internal/draft"
	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/mcdev12/champdraft/go/internal/draft/gateway"
	"github.com/mcdev12/champdraft/go/internal/draft/outbox"
	"github.com/mcdev12/champdraft/go/internal/draft/round"
	"github.com/mcdev12/champdraft/go/internal/roster"
	"github.com/mcdev12/champdraft/go/internal/stats"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "path to the YAML config file")
	flag.Parse()

	config.LoadDotEnv()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := openStats(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog := ddragon.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Locale)
	catalog.SetTimeout(time.Duration(cfg.Catalog.TimeoutSec) * time.Second)

	var src roster.Source = roster.Static(cfg.Participants())
	if cfg.DevMode {
		src = roster.FromStats{Stats: store}
	}

	mux := http.NewServeMux()

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go cm.Start(ctx)

	notifier := events.Multi{events.LogNotifier{}, cm}

	if cfg.NATS.Enabled {
		relay, closeRelay, err := startOutbox(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeRelay()
		notifier = append(notifier, relay)
		mux.Handle("GET /outbox/health", relay.health)
	}

	resolver := round.NewResolver(store, nil, notifier, nil)
	app := draft.NewApp(ctx, catalog, src, store, resolver, notifier, draft.Config{
		Settings: cfg.DraftSettings(),
		DevMode:  cfg.DevMode,
	})
	if _, err := app.RefreshCatalog(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog warm-up failed, will retry on first session")
	}

	draft.NewService(app).Register(mux)
	gateway.NewWebSocketHandler(cm, app).RegisterRoutes(mux)

	log.Info().
		Bool("dev_mode", cfg.DevMode).
		Str("stats_backend", cfg.Stats.Backend).
		Bool("fearless", cfg.Draft.Fearless).
		Int("candidates", len(cfg.Candidates)).
		Msg("champdraft configured")

	return serve(ctx, setupServer(cfg, mux))
}

func openStats(ctx context.Context, cfg config.Config) (stats.Store, error) {
	sc := stats.Config{
		Backend:    stats.Backend(cfg.Stats.Backend),
		File:       cfg.Stats.File,
		SQLitePath: cfg.Stats.SQLitePath,
	}
	if sc.Backend == stats.BackendPostgres {
		db, err := dbconfig.NewConfigFromEnv()
		if err != nil {
			return nil, err
		}
		sc.PostgresDSN = db.DSN()
	}
	return stats.Open(ctx, sc)
}

type outboxRelay struct {
	*outbox.Relay
	health *outbox.HealthChecker
}

func startOutbox(ctx context.Context, cfg config.Config) (*outboxRelay, func(), error) {
	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATS.URL
	jsCfg.StreamName = cfg.NATS.Stream

	pub, err := outbox.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, nil, err
	}
	relay := outbox.NewRelay(pub, outbox.DefaultConfig())
	if err := relay.Start(ctx); err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := relay.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop outbox relay")
		}
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close NATS connection")
		}
	}
	return &outboxRelay{Relay: relay, health: outbox.NewHealthChecker(relay, pub)}, closeFn, nil
}
