package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bet-tracker-bot/internal/api"
	"bet-tracker-bot/internal/bot"
	"bet-tracker-bot/internal/config"
	"bet-tracker-bot/internal/pkg/db"
	"bet-tracker-bot/internal/pkg/metrics"
	"bet-tracker-bot/internal/pkg/shortid"
	"bet-tracker-bot/internal/repository"
	"bet-tracker-bot/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log.Info().Msg("Configuration loaded successfully")
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Display.Location()
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to UTC for display")
	}

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := db.MigrateUp(cfg.Database.DSN()); err != nil {
		return err
	}

	pickRepo := repository.NewPickRepository(dbPool.Pool)

	counter, closeCounter, err := newCounter(ctx, cfg, dbPool)
	if err != nil {
		return err
	}
	defer closeCounter()

	m := metrics.NewDefault()
	allocator := shortid.NewAllocator(counter, pickRepo)
	pickService := service.NewPickService(pickRepo, allocator, m)
	statsService := service.NewStatsService(pickRepo, m)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:       cfg,
		PickService:  pickService,
		StatsService: statsService,
		Metrics:      m,
		Location:     loc,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewServer(statsService, pickRepo, dbPool, m.Handler(), 0).Router(),
			ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		}
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("HTTP API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server failed")
				stop()
			}
		}()
	}

	go telegramBot.Start()

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	telegramBot.Stop()
	if srv != nil {
		timeout := cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
	}

	log.Info().Msg("Bot stopped gracefully")
	return nil
}

// newCounter picks the short id sequence backend: Redis when configured,
// otherwise the counters table.
func newCounter(ctx context.Context, cfg *config.Config, pool *db.Pool) (shortid.Counter, func(), error) {
	if !cfg.Redis.Enabled() {
		return shortid.NewPostgresCounter(pool.Pool, shortid.DefaultCounterName), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Short id counter backed by Redis")

	return shortid.NewRedisCounter(client, shortid.DefaultCounterName), func() { _ = client.Close() }, nil
}
