// Package archive uploads snapshots of deleted lists to object storage from
// a bounded background worker pool.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/todoshare/backend/internal/models"
)

var (
	// ErrClosed is returned by Enqueue after Shutdown has been called.
	ErrClosed = errors.New("list archiver closed")
	// ErrQueueFull is returned by Enqueue when no queue slot is free.
	ErrQueueFull = errors.New("list archive queue full")
)

// ObjectStorage persists archive blobs and returns their location.
type ObjectStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Config controls the concurrency characteristics of the archiver.
type Config struct {
	QueueSize     int
	Workers       int
	UploadTimeout time.Duration
}

// ListArchiver asynchronously uploads list snapshots.
type ListArchiver struct {
	storage ObjectStorage
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan models.ListSnapshot
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts cfg.Workers workers uploading to storage.
func New(storage ObjectStorage, cfg Config, logger *slog.Logger) *ListArchiver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &ListArchiver{
		storage: storage,
		logger:  logger,
		timeout: cfg.UploadTimeout,
		jobs:    make(chan models.ListSnapshot, cfg.QueueSize),
	}

	a.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go a.worker()
	}

	return a
}

// Enqueue schedules snapshot for upload without waiting for a free queue
// slot.
func (a *ListArchiver) Enqueue(ctx context.Context, snapshot models.ListSnapshot) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case a.jobs <- snapshot:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting snapshots and waits for queued uploads to finish.
func (a *ListArchiver) Shutdown(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.jobs)
		a.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (a *ListArchiver) worker() {
	defer a.wg.Done()

	for snapshot := range a.jobs {
		a.upload(snapshot)
	}
}

func (a *ListArchiver) upload(snapshot models.ListSnapshot) {
	logger := a.logger.With("listId", snapshot.List.ID)
	if a.storage == nil {
		logger.Error("list archiver has no storage")
		return
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("encode list snapshot", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	location, err := a.storage.Save(ctx, ObjectKey(snapshot), bytes.NewReader(body))
	if err != nil {
		logger.Error("list archive upload failed", "error", err)
		return
	}

	logger.Info("list archived", "location", location, "bytes", len(body))
}

// ObjectKey returns the storage key of a snapshot:
// lists/<creatorId>/<listId>-<unix seconds>.json.
func ObjectKey(snapshot models.ListSnapshot) string {
	return path.Join("lists", snapshot.List.CreatorID, fmt.Sprintf("%s-%d.json", snapshot.List.ID, snapshot.DeletedAt.Unix()))
}
