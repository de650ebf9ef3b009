// ABOUTME: Settings store owning the in-memory AppSettings and its persisted snapshot
// ABOUTME: Loads once over defaults, applies diff-aware updates, and writes through in the background

package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/2389/guardian/internal/kv"
)

// Store owns the canonical AppSettings. Reads are synchronous and always
// reflect the latest Update; persistence is best-effort and never awaited
// by Update.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
	writer *writer
	newID  func() string

	loadOnce sync.Once

	// dataMu serializes ClearAllData with journal read-modify-writes.
	dataMu sync.Mutex

	mu        sync.Mutex
	current   AppSettings
	version   uint64 // bumped on every effective change
	disk      string // serialized form on disk or currently being written
	loading   bool
	dirty     bool // modified while loading
	listeners []func(AppSettings)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithIDGenerator overrides contact id generation (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore creates a store holding the defaults. Call Load once to read the
// persisted record.
func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		current: Defaults(),
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "settings")
	s.writer = newWriter(store, kv.SettingsKey, s.logger)
	return s
}

// Load reads the persisted settings and overlays them onto the defaults.
// Only the first call does any work. A missing or malformed record leaves
// the defaults in place. Updates made before Load finishes are kept and
// the stored record is discarded.
func (s *Store) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		raw, found := s.kv.Get(ctx, kv.SettingsKey)

		var (
			merged AppSettings
			parsed bool
		)
		if found {
			merged, parsed = decode(raw)
			if !parsed {
				s.logger.Warn("stored settings are malformed, using defaults")
			}
		}

		s.mu.Lock()
		changed := false
		switch {
		case s.dirty:
			s.logger.Info("settings changed while loading, keeping in-memory edits")
		case parsed:
			if serialized, err := encode(merged); err == nil {
				s.disk = serialized
			}
			changed = !cmp.Equal(s.current, merged, equateNaNs)
			s.current = merged
			s.version++
		}
		s.loading = false
		snapshot := s.current.Clone()
		listeners := append([]func(AppSettings){}, s.listeners...)
		s.mu.Unlock()

		s.logger.Debug("settings loaded", "stored", found, "contacts", len(snapshot.EmergencyContacts))
		if changed {
			for _, fn := range listeners {
				fn(snapshot.Clone())
			}
		}
	})
}

// Loading reports whether Load has not completed yet.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// OnChange registers fn to be called with the new settings after every
// effective update. Callbacks run on the updating goroutine.
func (s *Store) OnChange(fn func(AppSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update computes the next settings from the previous ones. It is a no-op
// when the result deep-equals the previous settings. Otherwise the new
// settings are visible immediately and, if their serialized form differs
// from the last one handed to storage, written through in the background.
// It reports whether the settings changed.
//
// fn runs without the store lock held, so it may read the store. When
// another update lands while fn runs, fn is called again with the newer
// settings; it must not have side effects beyond its result.
func (s *Store) Update(fn func(prev AppSettings) AppSettings) bool {
	for {
		s.mu.Lock()
		base := s.current.Clone()
		version := s.version
		s.mu.Unlock()

		next := normalize(fn(base))

		s.mu.Lock()
		if s.version != version {
			s.mu.Unlock()
			continue
		}
		if cmp.Equal(s.current, next, equateNaNs) {
			s.mu.Unlock()
			return false
		}
		s.commitLocked(next)

		snapshot := next.Clone()
		listeners := append([]func(AppSettings){}, s.listeners...)
		s.mu.Unlock()

		for _, l := range listeners {
			l(snapshot.Clone())
		}
		return true
	}
}

func (s *Store) commitLocked(next AppSettings) {
	s.current = next
	s.version++
	if s.loading {
		s.dirty = true
	}

	serialized, err := encode(next)
	switch {
	case err != nil:
		s.logger.Warn("settings not serializable, skipping write", "error", err)
	case serialized != s.disk:
		// Recorded before the write lands so an identical follow-up
		// update does not queue a duplicate.
		s.disk = serialized
		s.writer.submit(serialized)
	}
}

// Merge overlays a partial record onto the current settings.
func (s *Store) Merge(patch Partial) bool {
	return s.Update(patch.Apply)
}

// SetShakeSensitivity stores v as entered; clamping happens where it is used.
// Non-finite values cannot be persisted and are mapped first: NaN to the
// default, infinities to the nearest bound.
func (s *Store) SetShakeSensitivity(v float64) bool {
	return s.Update(func(prev AppSettings) AppSettings {
		prev.Gesture.ShakeSensitivity = v
		return prev
	})
}

// ClearAllData removes location history and alert logs. The settings blob
// is untouched. It reports whether both deletes were confirmed.
func (s *Store) ClearAllData(ctx context.Context) bool {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	history := s.kv.Delete(ctx, kv.LocationHistoryKey)
	alerts := s.kv.Delete(ctx, kv.AlertLogKey)
	s.logger.Info("cleared location history and alert logs", "confirmed", history && alerts)
	return history && alerts
}

// DataLock guards the location history and alert log keys. Anything doing
// a read-modify-write on them must hold it so ClearAllData is not undone.
func (s *Store) DataLock() sync.Locker {
	return &s.dataMu
}

// Flush waits for background writes submitted so far to reach storage.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// decode overlays a stored JSON record onto fresh defaults.
func decode(raw string) (AppSettings, bool) {
	merged := Defaults()
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return Defaults(), false
	}
	return normalize(merged), true
}

func encode(s AppSettings) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var equateNaNs = cmpopts.EquateNaNs()

// normalize keeps the contact list non-nil so nil and empty lists never
// look like different settings, and replaces floats JSON cannot encode.
func normalize(s AppSettings) AppSettings {
	if s.EmergencyContacts == nil {
		s.EmergencyContacts = []EmergencyContact{}
	}
	if !finite(s.Gesture.ShakeSensitivity) {
		s.Gesture.ShakeSensitivity = ClampSensitivity(s.Gesture.ShakeSensitivity)
	}
	if !finite(s.Voice.Volume) {
		if math.IsNaN(s.Voice.Volume) {
			s.Voice.Volume = DefaultVoiceVolume
		} else {
			s.Voice.Volume = Clamp(s.Voice.Volume, 0, 1)
		}
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
