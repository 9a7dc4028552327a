package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/dominoscore/internal/config"
	"github.com/playperu/dominoscore/internal/database"
	"github.com/playperu/dominoscore/internal/events"
	"github.com/playperu/dominoscore/internal/handler/health"
	"github.com/playperu/dominoscore/internal/match"
	"github.com/playperu/dominoscore/internal/migrations"
	"github.com/playperu/dominoscore/internal/server"
	"github.com/playperu/dominoscore/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(stdout, cfg)

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Events ---
	broker := events.NewBroker()
	var (
		pub   match.Publisher = broker
		relay *events.RedisRelay
		deps  = []health.Dependency{{Name: "sqlite", Checker: dbChecker{db}}}
	)
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		relay = events.NewRedisRelay(rdb, broker, logger)
		pub = relay
		deps = append(deps, health.Dependency{Name: "redis", Checker: redisChecker{rdb}, Optional: true})
	}

	engine := match.NewEngine(store.New(db), pub, logger)
	if cfg.SeedDemo {
		if _, err := engine.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seeding demo roster: %w", err)
		}
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Engine:          engine,
		Broker:          broker,
		Health:          health.NewHandler(logger, deps...).Routes(),
		ScorekeeperHash: cfg.ScorekeeperPasswordHash,
		WebDir:          cfg.WebDir,
	})
	if cfg.ScorekeeperPasswordHash == "" {
		logger.Warn("SCOREKEEPER_PASSWORD_HASH not set, mutating endpoints are open")
	}

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	if relay != nil {
		g.Go(func() error {
			logger.Info("starting redis event relay", "channel", events.Channel)
			return relay.Run(gctx)
		})
	}

	return g.Wait()
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
