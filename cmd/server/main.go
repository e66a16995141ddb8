package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"musiccatalog/m/internal/auth"
	"musiccatalog/m/internal/catalog"
	"musiccatalog/m/internal/config"
	"musiccatalog/m/internal/database"
	"musiccatalog/m/internal/logging"
	"musiccatalog/m/internal/migrations"
	"musiccatalog/m/internal/repository"
	"musiccatalog/m/internal/seed"
	"musiccatalog/m/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return err
	}

	users := repository.NewSQLUserRepository(db)
	albums := repository.NewSQLAlbumRepository(db)

	if cfg.Session.Secret == config.DefaultSecret {
		logger.Warn("SESSION_SECRET is not set, using the development default")
	}
	if cfg.Seed.AdminPassword == config.DefaultAdminPassword {
		logger.Warn("ADMIN_PASSWORD is not set, the seed admin uses the development default")
	}
	if _, err := seed.EnsureAdmin(ctx, users, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword, logger); err != nil {
		return err
	}
	if cfg.Seed.CatalogPath != "" {
		if _, err := seed.LoadAlbums(ctx, albums, cfg.Seed.CatalogPath, logger); err != nil {
			return err
		}
	}

	sessions, closeSessions, err := newSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	handler, err := web.New(web.Deps{
		Catalog:  catalog.NewService(albums),
		Auth:     auth.NewService(users),
		Sessions: sessions,
		Guard:    auth.NewMiddleware(sessions, users, logger),
		DB:       db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("music catalog server starting", "addr", srv.Addr, "session_store", cfg.Session.Store)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newSessions(ctx context.Context, cfg config.Config) (auth.SessionManager, func(), error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return auth.NewCookieSessions(cfg.Session.Secret, cfg.Session.TTL.Duration, cfg.Session.SecureCookies), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	closeFn := func() { _ = rdb.Close() }
	return auth.NewRedisSessions(rdb, cfg.Session.TTL.Duration, cfg.Session.SecureCookies), closeFn, nil
}
