package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gorilla/mux"

	"github.com/todoshare/backend/internal/config"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/handlers"
	"github.com/todoshare/backend/internal/httpserver"
	"github.com/todoshare/backend/internal/logging"
	"github.com/todoshare/backend/internal/middleware"
)

// Run dispatches the todoshare subcommands: serve, migrate and seed.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "serve":
		return serve(ctx, cfg)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:])
	case "seed":
		return runSeed(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(drainCtx); err != nil {
			logger.Error("drain background work", "error", err)
		}
	}()

	router := mux.NewRouter()
	handlers.RegisterRoutes(router, deps)

	srv := httpserver.New(cfg.AppPort, middleware.RequestLogger(logger)(router))
	logger.Info("starting http server", "port", cfg.AppPort, "prefix", cfg.APIPrefix)

	return srv.Run(ctx, logger)
}
