package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/todoshare/backend/internal/archive"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/config"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/friends"
	"github.com/todoshare/backend/internal/handlers"
	"github.com/todoshare/backend/internal/history"
	"github.com/todoshare/backend/internal/lists"
	"github.com/todoshare/backend/internal/middleware"
	"github.com/todoshare/backend/internal/repositories"
	"github.com/todoshare/backend/internal/storage"
	"github.com/todoshare/backend/internal/users"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background work and must be called
// before the pool is closed.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	sessions := auth.NewManager(
		auth.NewTokenSigner([]byte(cfg.Auth.Secret)),
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
		repositories.NewPostgresSessionStore(pool),
	)
	friendStore := repositories.NewPostgresFriendStore(pool)

	var archiver lists.Archiver
	cleanup := func(context.Context) error { return nil }
	if cfg.ObjectStore.Enabled() {
		objects, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		listArchiver := archive.New(objects, archive.Config{
			QueueSize: cfg.Archive.QueueSize,
			Workers:   cfg.Archive.Workers,
		}, logger)
		archiver = listArchiver
		cleanup = listArchiver.Shutdown
	} else {
		logger.Info("object store not configured, deleted lists will not be archived")
	}

	listService := lists.NewService(repositories.NewPostgresListRepository(pool), friendStore, archiver)

	deps := handlers.Dependencies{
		APIPrefix: cfg.APIPrefix,
		Users: users.Service{
			Users:     repositories.NewPostgresUserRepository(pool),
			Relations: friendStore,
			Sessions:  sessions,
		},
		Friends: friends.NewService(friendStore),
		Lists:   listService,
		History: history.NewService(repositories.NewPostgresHistoryRepository(pool), listService),
		Tokens:  sessions,
		Limiter: middleware.NewRateLimiter(cfg.RateLimit),
	}
	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.Database = pinger
	}

	return deps, cleanup, nil
}
