// ABOUTME: Bounded alert log and location history persisted under their own kv keys
// ABOUTME: Entries older than the privacy auto-delete window are pruned on every write

package alert

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/guardian/internal/kv"
	"github.com/2389/guardian/internal/settings"
)

// DefaultJournalLimit caps each journal list.
const DefaultJournalLimit = 50

// LogEntry is one trigger attempt in the alert log
type LogEntry struct {
	ID           string    `json:"id"`
	At           time.Time `json:"at"`
	Outcome      Outcome   `json:"outcome"`
	Recipients   []string  `json:"recipients,omitempty"`
	LocationLink string    `json:"locationLink,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// LocationRecord is one fix in the location history
type LocationRecord struct {
	At time.Time `json:"at"`
	Position
}

// Journal appends to the alert log and location history. Writes are
// best-effort; a failed write is logged and dropped.
type Journal struct {
	mu     sync.Locker
	store  kv.Store
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithJournalLock makes appends hold l. Pass settings.Store.DataLock so a
// concurrent ClearAllData cannot be overwritten by an append in progress.
func WithJournalLock(l sync.Locker) JournalOption {
	return func(j *Journal) {
		j.mu = l
	}
}

// NewJournal creates a journal keeping at most limit entries per list.
func NewJournal(store kv.Store, limit int, logger *slog.Logger, opts ...JournalOption) *Journal {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{
		mu:     &sync.Mutex{},
		store:  store,
		limit:  limit,
		logger: logger.With("component", "journal"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Retention returns how long entries are kept under policy. Zero means forever.
func Retention(policy settings.AutoDeletePolicy) time.Duration {
	switch policy {
	case settings.AutoDelete24h:
		return 24 * time.Hour
	case settings.AutoDelete7d:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// RecordAlert appends entry to the alert log.
func (j *Journal) RecordAlert(ctx context.Context, entry LogEntry, policy settings.AutoDeletePolicy) bool {
	return appendEntry(ctx, j, kv.AlertLogKey, entry, func(e LogEntry) time.Time { return e.At }, policy)
}

// RecordLocation appends rec to the location history.
func (j *Journal) RecordLocation(ctx context.Context, rec LocationRecord, policy settings.AutoDeletePolicy) bool {
	return appendEntry(ctx, j, kv.LocationHistoryKey, rec, func(r LocationRecord) time.Time { return r.At }, policy)
}

// Alerts returns the alert log, oldest first.
func (j *Journal) Alerts(ctx context.Context) []LogEntry {
	return readEntries[LogEntry](ctx, j, kv.AlertLogKey)
}

// Locations returns the location history, oldest first.
func (j *Journal) Locations(ctx context.Context) []LocationRecord {
	return readEntries[LocationRecord](ctx, j, kv.LocationHistoryKey)
}

func readEntries[T any](ctx context.Context, j *Journal, key string) []T {
	raw, ok := j.store.Get(ctx, key)
	if !ok {
		return nil
	}
	var entries []T
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		j.logger.Warn("discarding malformed journal", "key", key, "error", err)
		return nil
	}
	return entries
}

func appendEntry[T any](ctx context.Context, j *Journal, key string, item T, at func(T) time.Time, policy settings.AutoDeletePolicy) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := append(readEntries[T](ctx, j, key), item)

	if keep := Retention(policy); keep > 0 {
		cutoff := j.now().Add(-keep)
		kept := entries[:0]
		for _, e := range entries {
			if at(e).After(cutoff) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if len(entries) > j.limit {
		entries = entries[len(entries)-j.limit:]
	}

	b, err := json.Marshal(entries)
	if err != nil {
		j.logger.Warn("journal entry not serializable", "key", key, "error", err)
		return false
	}
	return j.store.Set(ctx, key, string(b))
}
