package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweeparena/sweeparena/internal/config"
	"github.com/sweeparena/sweeparena/internal/dependencies/clock"
	"github.com/sweeparena/sweeparena/internal/dependencies/random"
	"github.com/sweeparena/sweeparena/internal/services/board"
	"github.com/sweeparena/sweeparena/internal/services/leaderboard"
	"github.com/sweeparena/sweeparena/internal/services/reveal"
	"github.com/sweeparena/sweeparena/internal/services/room"
	"github.com/sweeparena/sweeparena/internal/services/turn"
	"github.com/sweeparena/sweeparena/internal/storage"
	"github.com/sweeparena/sweeparena/internal/storage/memory"
	redisstorage "github.com/sweeparena/sweeparena/internal/storage/redis"
	"github.com/sweeparena/sweeparena/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Storage storage.Storage

	Clock  clock.Clock
	Random random.Random

	Generator      *board.Generator
	Engine         *reveal.Engine
	Arbiter        *turn.Arbiter
	RoomController *room.Controller
	Leaderboard    *leaderboard.Service

	Hub       *ws.Hub
	Registry  *ws.Registry
	WSHandler *ws.Handler
}

// New creates a new application with all dependencies wired from the
// given configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	switch cfg.StorageType {
	case "", StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid STORAGE_TYPE: must be 'memory' or 'redis'")
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
	}

	return newWithDependencies(cfg, store, pool, clock.New(), random.New(), logger)
}

// newWithDependencies wires an App from explicit dependencies. The
// test factory goes through here with mocks.
func newWithDependencies(
	cfg *config.Config,
	store storage.Storage,
	pool *pgxpool.Pool,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) (*App, error) {
	generator := board.New(logger)
	engine := reveal.New(generator, logger)
	arbiter := turn.New(clk, logger)
	roomController := room.NewController(store, engine, arbiter, clk, rnd, logger)

	boards := leaderboard.New(pool, clk, logger)
	if boards.Enabled() {
		roomController.SetResultSink(boards)
	}

	hub := ws.NewHub(logger)
	registry := ws.NewRegistry(cfg.GracePeriod)
	wsHandler := ws.NewHandler(roomController, hub, registry, clk, cfg.AllowedOrigin, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Generator:      generator,
		Engine:         engine,
		Arbiter:        arbiter,
		RoomController: roomController,
		Leaderboard:    boards,
		Hub:            hub,
		Registry:       registry,
		WSHandler:      wsHandler,
	}, nil
}
