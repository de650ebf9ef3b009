// ABOUTME: Coalescing fire-and-forget writer for the serialized settings blob
// ABOUTME: Writes land in submission order and the most recent content always wins

package settings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/guardian/internal/kv"
)

// writer persists serialized snapshots in the background. Submit never
// blocks on storage, never retries, and never reports failures. Snapshots
// submitted while a write is running replace each other, so only the latest
// one is written next.
type writer struct {
	store  kv.Store
	key    string
	logger *slog.Logger

	mu      sync.Mutex
	pending *string
	running bool
	idle    chan struct{} // closed when the current drain finishes
}

func newWriter(store kv.Store, key string, logger *slog.Logger) *writer {
	return &writer{
		store:  store,
		key:    key,
		logger: logger,
	}
}

// submit queues value for writing and returns immediately.
func (w *writer) submit(value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = &value
	if w.running {
		return
	}
	w.running = true
	w.idle = make(chan struct{})
	go w.drain(w.idle)
}

func (w *writer) drain(idle chan struct{}) {
	for {
		w.mu.Lock()
		value := w.pending
		w.pending = nil
		if value == nil {
			w.running = false
			close(idle)
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		if !w.store.Set(context.Background(), w.key, *value) {
			w.logger.Warn("settings write not confirmed", "key", w.key)
		}
	}
}

// flush waits until every submitted value has been handed to storage.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
