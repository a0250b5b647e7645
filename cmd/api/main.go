// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"coldchain-freight-api-server/config"
	"coldchain-freight-api-server/internal/api/middleware"
	"coldchain-freight-api-server/internal/api/routes"
	"coldchain-freight-api-server/internal/auth"
	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/compliance"
	"coldchain-freight-api-server/internal/database"
	"coldchain-freight-api-server/internal/matching"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"
	"coldchain-freight-api-server/internal/s3"
	"coldchain-freight-api-server/internal/socket"
	"coldchain-freight-api-server/internal/telemetry"
	"coldchain-freight-api-server/internal/vetting"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	clk := clock.Real()

	// 2. Record store: MongoDB when configured, process memory otherwise
	var repo repository.Repository
	if cfg.Mongo.URI != "" {
		client, db, err := database.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		repo = repository.NewMongoRepository(db)
		logger.Info("using mongo store", "db", cfg.Mongo.DBName)
	} else {
		repo = repository.NewMemoryRepository()
		logger.Warn("MONGO_URI not set, using in-memory store")
	}

	if err := database.SeedAdmin(ctx, repo, cfg.Admin, logger); err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	// 3. Live updates: local hub, fanned out across replicas through Redis when configured
	hub := socket.NewHub[models.ShipmentUpdate](socket.DefaultBuffer, logger)
	var publisher telemetry.Publisher = hub
	var relay *socket.RedisRelay[models.ShipmentUpdate]
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		relay = socket.NewRedisRelay(rdb, hub, logger)
		publisher = relay
		logger.Info("relaying shipment updates through redis", "addr", cfg.Redis.Addr)
	}

	// Registered after the store and redis closers, so it runs before them.
	bg := newWorkers(ctx, logger)
	defer func() {
		if err := bg.Stop(); err != nil {
			logger.Warn("background workers exited with errors", "error", err)
		}
	}()
	if relay != nil {
		bg.Go("redis relay", relay.Run)
	}

	// 4. Violation reports go to S3 when a bucket is configured
	var archiver telemetry.Archiver
	if cfg.S3.Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			return err
		}
		archiver = uploader
	}

	loop := telemetry.NewLoop(telemetry.Deps{
		Store:     repo,
		Checker:   compliance.NewEngine(repo, clk),
		Source:    telemetry.NewSimulator(cfg.Telemetry.Seed),
		Publisher: publisher,
		Archiver:  archiver,
		Clock:     clk,
		Logger:    logger,
		Interval:  cfg.Telemetry.Interval,
	})
	if cfg.Telemetry.Enabled {
		bg.Go("telemetry loop", loop.Run)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	bg.Go("rate limit sweeper", func(ctx context.Context) error {
		limiter.RunSweeper(ctx)
		return nil
	})

	router := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		Repo:        repo,
		Tokens:      tokens,
		Vetting:     vetting.NewEngine(repo, clk),
		Matching:    matching.NewEngine(repo),
		Telemetry:   loop,
		Hub:         hub,
		RateLimiter: limiter,
		Clock:       clk,
		Logger:      logger,
	})

	// 5. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
