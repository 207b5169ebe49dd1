// @title                       Marketplace API
// @version                     1.0
// @description                 Classified ads with comments and user profiles.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.basic   BasicAuth
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

	"github.com/rs/zerolog"

	_ "github.com/skyads/marketplace/docs"
	"github.com/skyads/marketplace/internal/api"
	"github.com/skyads/marketplace/internal/api/handler"
	"github.com/skyads/marketplace/internal/core/ports"
	"github.com/skyads/marketplace/internal/core/service"
	"github.com/skyads/marketplace/internal/infrastructure/config"
	"github.com/skyads/marketplace/internal/infrastructure/db/gormstore"
	mongostore "github.com/skyads/marketplace/internal/infrastructure/db/mongo"
	redisstore "github.com/skyads/marketplace/internal/infrastructure/db/redis"
	"github.com/skyads/marketplace/internal/infrastructure/idgen"
	"github.com/skyads/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// stores groups the repositories of whichever driver is configured.
type stores struct {
	users    ports.UserRepository
	ads      ports.AdRepository
	comments ports.CommentRepository
	images   ports.ImageStore
	checks   []handler.DependencyCheck
	close    func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "marketplace: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log, err := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Warn().Err(err).Msg("log file unavailable, logging to stdout only")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()

	var idempotency ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		idempotency = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		st.checks = append(st.checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	} else {
		log.Info().Msg("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	ids, err := idgen.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Users:         service.NewUserService(st.users, st.images, ids, cfg.JWTSecret, cfg.TokenTTL, log.With().Str("component", "users").Logger()),
		Ads:           service.NewAdService(st.ads, st.users, st.images, ids, idempotency, log.With().Str("component", "ads").Logger()),
		Comments:      service.NewCommentService(st.comments, st.ads, st.users, ids, log.With().Str("component", "comments").Logger()),
		Checks:        st.checks,
		JWTSecret:     cfg.JWTSecret,
		ImageMaxBytes: cfg.ImageMaxBytes,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &stores{
			users:    mongostore.NewUserRepository(db),
			ads:      mongostore.NewAdRepository(db, cfg.Mongo.Transactions),
			comments: mongostore.NewCommentRepository(db),
			images:   mongostore.NewImageStore(db),
			checks: []handler.DependencyCheck{{
				Name: "mongo",
				Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
			}},
			close: client.Disconnect,
		}, nil

	default:
		db, err := gormstore.Open(ctx, cfg.StoreDriver, cfg.Database.DSN, cfg.LogLevel == "debug")
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("database schema migrated")
		return &stores{
			users:    gormstore.NewUserRepository(db),
			ads:      gormstore.NewAdRepository(db),
			comments: gormstore.NewCommentRepository(db),
			images:   gormstore.NewImageStore(db),
			checks: []handler.DependencyCheck{{
				Name: cfg.StoreDriver,
				Ping: func(ctx context.Context) error { return gormstore.Ping(ctx, db) },
			}},
			close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil
	}
}
