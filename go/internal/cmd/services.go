package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scotchauction/go/internal/game"
	"github.com/mcdev12/scotchauction/go/internal/gateway"
	"github.com/mcdev12/scotchauction/go/internal/leaderboard"
	"github.com/mcdev12/scotchauction/go/internal/models"
	"github.com/mcdev12/scotchauction/go/internal/oracle"
	"github.com/mcdev12/scotchauction/go/internal/relay"
)

// Services bundles the wired application components.
type Services struct {
	Store             leaderboard.Store
	Publisher         relay.Publisher
	ConnectionManager *gateway.ConnectionManager
	Registry          *game.Registry
	Handler           *gateway.Handler
}

// setupServices wires the leaderboard store, event relay, session
// registry, oracle runner, and WebSocket gateway. The returned cleanup
// releases external connections.
func setupServices(ctx context.Context, config *Config) (*Services, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	store, err := setupStore(ctx, config, &cleanups)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	publisher := setupPublisher(config, &cleanups)

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	broadcaster := gateway.NewBroadcaster(cm, publisher)

	registry := game.NewRegistry(game.Config{
		MaxTurns:     config.Game.MaxTurns,
		StartBalance: config.Game.StartBalance,
		Settlement:   models.SettlementRule(config.Game.Settlement),
	}, broadcaster, store)

	runner := oracle.NewRunner(map[string]oracle.Oracle{
		oracle.KindRandom:    oracle.NewRandomOracle(),
		oracle.KindHeuristic: oracle.NewHeuristicOracle(),
	}, time.Duration(config.Oracle.TimeoutSec)*time.Second)

	handler := gateway.NewHandler(registry, cm, broadcaster, runner, store)

	return &Services{
		Store:             store,
		Publisher:         publisher,
		ConnectionManager: cm,
		Registry:          registry,
		Handler:           handler,
	}, cleanup, nil
}

func setupStore(ctx context.Context, config *Config, cleanups *[]func()) (leaderboard.Store, error) {
	if !config.Database.Enabled {
		log.Info().Msg("database disabled, using in-memory leaderboard")
		return leaderboard.NewMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	*cleanups = append(*cleanups, pool.Close)

	store := leaderboard.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	log.Info().
		Str("host", config.Database.Host).
		Str("database", config.Database.Database).
		Msg("connected to leaderboard database")
	return store, nil
}

func setupPublisher(config *Config, cleanups *[]func()) relay.Publisher {
	if config.NATS.URL == "" {
		return relay.NoopPublisher{}
	}

	publisher, err := relay.Connect(config.NATS.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", config.NATS.URL).Msg("event relay unavailable, continuing without it")
		return relay.NoopPublisher{}
	}
	*cleanups = append(*cleanups, publisher.Close)

	log.Info().Str("url", config.NATS.URL).Msg("event relay connected")
	return publisher
}
