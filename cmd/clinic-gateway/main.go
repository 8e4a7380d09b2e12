package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-frontdesk/internal/api"
	"github.com/hackgods/clinic-frontdesk/internal/audit"
	"github.com/hackgods/clinic-frontdesk/internal/config"
	"github.com/hackgods/clinic-frontdesk/internal/db"
	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

var version = "dev"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clinic-gateway").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Dev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("service", "clinic-gateway").Logger()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pgPool   *pgxpool.Pool
		history  api.HistoryReader
		recorder audit.Recorder = audit.NewLogRecorder(logger)
	)
	if cfg.PostgresEnabled() {
		pgPool, err = db.ConnectPostgres(rootCtx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect postgres")
		}
		defer pgPool.Close()

		pg := audit.NewPgRecorder(pgPool)
		if err := pg.EnsureSchema(rootCtx); err != nil {
			logger.Fatal().Err(err).Msg("prepare audit table")
		}
		recorder, history = pg, pg
		logger.Info().Msg("audit trail stored in postgres")
	}

	var (
		rdb    *redis.Client
		locker redisclient.Locker = workspace.NewLocalLocker()
	)
	if cfg.RedisEnabled() {
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()

		locker = redisclient.NewRedisAppointmentLocker(rdb, cfg.LockTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("appointment locks shared through redis")
	}

	router := api.NewRouter(api.RouterConfig{
		StoreBaseURL:  cfg.StoreBaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.StoreTimeout},
		Location:      cfg.Location,
		PageSize:      cfg.PageSize,
		AllowOverride: cfg.AllowStatusOverride,
		Locker:        locker,
		Recorder:      recorder,
		History:       history,
		Logger:        logger,
		PgPool:        pgPool,
		Redis:         rdb,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.HTTPPort).
			Str("store", cfg.StoreBaseURL).
			Str("timezone", cfg.Location.String()).
			Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	logger.Info().Msg("gateway stopped")
}
