package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/todoshare/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

type pingingPool struct{ fakePool }

func (pingingPool) Ping(context.Context) error { return nil }

func testConfig() config.Config {
	return config.Config{
		APIPrefix: "/api/v1",
		Auth:      config.AuthConfig{Secret: "test-secret", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		RateLimit: config.RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5, TTL: time.Minute},
		Archive:   config.ArchiveConfig{QueueSize: 4, Workers: 1},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildDependencies(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), pingingPool{}, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	if err := cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup without archiver: %v", err)
	}

	if deps.Users == nil || deps.Friends == nil || deps.Lists == nil || deps.History == nil {
		t.Fatalf("expected services to be configured: %+v", deps)
	}
	if deps.Tokens == nil {
		t.Fatal("expected token verifier to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if deps.Database == nil {
		t.Fatal("expected database pinger when the pool supports Ping")
	}
	if deps.APIPrefix != "/api/v1" {
		t.Fatalf("unexpected prefix %q", deps.APIPrefix)
	}
}

func TestBuildDependenciesWithoutPinger(t *testing.T) {
	deps, _, err := buildDependencies(context.Background(), fakePool{}, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.Database != nil {
		t.Fatal("expected no pinger for a pool without Ping")
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	_, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cleanup(ctx); err != nil {
		t.Fatalf("archiver shutdown: %v", err)
	}
}
