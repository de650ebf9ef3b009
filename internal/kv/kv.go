// ABOUTME: Fail-safe key-value contract and backend selection for guardian persistence
// ABOUTME: Adapter swallows backend errors so storage never fails past this boundary

package kv

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ErrNotFound is returned by a Backend when a key has no value
var ErrNotFound = errors.New("not found")

// Persisted keys. Settings and the two auxiliary logs are independent so the
// logs can be cleared without touching settings.
const (
	SettingsKey        = "safetyapp.settings.v1"
	LocationHistoryKey = "safetyapp.locationHistory.v1"
	AlertLogKey        = "safetyapp.alertLogs.v1"
)

// Store is the fail-safe key-value contract. Implementations never return
// errors: a failed read looks like a missing key and a failed write reports
// false.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) bool
	Delete(ctx context.Context, key string) bool
}

// Backend is a raw storage engine that reports its failures.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Adapter exposes a Backend through the fail-safe Store contract.
type Adapter struct {
	backend Backend
	logger  *slog.Logger
}

// NewAdapter wraps backend. A nil logger uses slog.Default().
func NewAdapter(backend Backend, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		backend: backend,
		logger:  logger.With("component", "kv"),
	}
}

// Get returns the value for key. Missing keys and read failures both report false.
func (a *Adapter) Get(ctx context.Context, key string) (string, bool) {
	v, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn("read failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

// Set stores value under key and reports whether the write was confirmed.
func (a *Adapter) Set(ctx context.Context, key, value string) bool {
	if err := a.backend.Set(ctx, key, value); err != nil {
		a.logger.Warn("write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Delete removes key and reports whether the delete was confirmed.
// Deleting a missing key counts as confirmed.
func (a *Adapter) Delete(ctx context.Context, key string) bool {
	if err := a.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		a.logger.Warn("delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Options selects the durable backend.
type Options struct {
	Driver string // "sqlite" (modernc) or "sqlite3" (mattn); empty means "sqlite"
	Path   string // empty selects the in-memory fallback
}

// Open chooses the backend once for the process lifetime and returns the
// fail-safe store plus a closer for the underlying backend. It never fails:
// when the durable backend is unavailable it falls back to memory.
func Open(opts Options, logger *slog.Logger) (*Adapter, io.Closer) {
	if logger == nil {
		logger = slog.Default()
	}

	var backend Backend
	if opts.Path != "" {
		sqlite, err := NewSQLiteBackend(opts.Driver, opts.Path)
		if err != nil {
			logger.Warn("durable storage unavailable, using in-memory fallback",
				"component", "kv",
				"path", opts.Path,
				"error", err,
			)
		} else {
			backend = sqlite
		}
	}
	if backend == nil {
		logger.Info("using in-memory storage", "component", "kv")
		backend = NewMemoryBackend()
	}

	return NewAdapter(backend, logger), backend
}
