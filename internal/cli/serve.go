package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wafflestudio/seminar-system/internal/api"
	"github.com/wafflestudio/seminar-system/internal/api/handler"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
	"github.com/wafflestudio/seminar-system/internal/core/service"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/config"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/db/mongo"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/db/postgres"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/db/redis"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/i18n"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/queue"
	"github.com/wafflestudio/seminar-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx, opts.envFiles()...)
			if err != nil {
				return err
			}
			log := initLogger(cfg)
			return serve(ctx, cfg, migrate, log)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending schema changes before serving")
	return cmd
}

func initLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "seminar",
	})
}

func serve(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg, migrate, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	health := map[string]handler.Pinger{"store": store}

	// Redis is optional: without it seminar profiles are not cached and
	// Idempotency-Key is ignored.
	var (
		cache service.SeminarCache
		idem  service.IdempotencyStore
	)
	stores, err := redis.Open(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		CacheTTL: cfg.Redis.CacheTTL,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, running without cache")
	} else {
		defer stores.Close()
		cache = stores.Cache
		idem = stores.Idempotency
		health["redis"] = stores
	}

	translator, err := i18n.NewTranslator(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	activity := service.NewActivityService(store, log.With().Str("component", "activity").Logger())
	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, activity, log.With().Str("component", "dispatcher").Logger())
	dispatcher.Start(ctx)

	auth := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, log)
	router := api.NewRouter(api.Deps{
		Log:        log,
		Translator: translator,
		Verifier:   auth,
		Auth:       auth,
		Users:      service.NewUserService(store, log),
		Seminars:   service.NewSeminarService(store, cache, idem, dispatcher, log),
		Activity:   activity,
		Health:     health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// Requests are drained first so every published event reaches a worker.
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("activity dispatcher shutdown")
	}
	return nil
}

// openStore connects the backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) (ports.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if migrate {
			if err := postgres.MigrateUp(cfg.Postgres.URL, log); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool), nil
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		store := mongo.NewStore(client, db)
		if migrate {
			if err := store.EnsureIndexes(ctx); err != nil {
				_ = store.Close(ctx)
				return nil, err
			}
		}
		return store, nil
	}
}
