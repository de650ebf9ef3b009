// ABOUTME: Tests for settings loading, diff-aware updates, and background write-through
// ABOUTME: Uses a recording kv fake to count and gate persistence writes

package settings

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/guardian/internal/kv"
)

// recordingKV is an in-memory kv.Store that counts operations and can hold
// writes until released.
type recordingKV struct {
	mu      sync.Mutex
	data    map[string]string
	gets    int
	sets    map[string]int
	history []string // values written to kv.SettingsKey in order
	gate    chan struct{}
}

func newRecordingKV() *recordingKV {
	return &recordingKV{
		data: make(map[string]string),
		sets: make(map[string]int),
	}
}

// holdWrites makes Set block until the returned release func is called.
func (r *recordingKV) holdWrites() (release func()) {
	gate := make(chan struct{})
	r.mu.Lock()
	r.gate = gate
	r.mu.Unlock()
	return func() { close(gate) }
}

func (r *recordingKV) Get(_ context.Context, key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	v, ok := r.data[key]
	return v, ok
}

func (r *recordingKV) Set(_ context.Context, key, value string) bool {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	r.sets[key]++
	if key == kv.SettingsKey {
		r.history = append(r.history, value)
	}
	return true
}

func (r *recordingKV) Delete(_ context.Context, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return true
}

func (r *recordingKV) writes(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets[key]
}

func (r *recordingKV) value(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func storedSettings(t *testing.T, r *recordingKV) AppSettings {
	t.Helper()
	raw, ok := r.value(kv.SettingsKey)
	require.True(t, ok, "settings should have been written")
	var s AppSettings
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return s
}

func TestStore_LoadWithoutRecordUsesDefaults(t *testing.T) {
	store := NewStore(newRecordingKV())
	assert.True(t, store.Loading())

	store.Load(context.Background())

	assert.False(t, store.Loading())
	assert.Equal(t, Defaults(), store.Settings())
}

func TestStore_LoadOverlaysStoredRecordOnDefaults(t *testing.T) {
	rec := newRecordingKV()
	rec.data[kv.SettingsKey] = `{
		"walkingModeAutoNotify": false,
		"gesture": {"shakeSensitivity": 2.5},
		"emergencyContacts": [{"id": "c1", "name": "Ana", "phone": "+19195551234"}]
	}`

	store := NewStore(rec)
	store.Load(context.Background())

	got := store.Settings()
	assert.False(t, got.WalkingModeAutoNotify)
	assert.Equal(t, 2.5, got.Gesture.ShakeSensitivity)
	assert.True(t, got.Gesture.Enabled, "unspecified nested fields keep their defaults")
	assert.Equal(t, GestureShake, got.Gesture.Type)
	assert.Equal(t, DefaultMessage, got.Templates.DefaultMessage)
	require.Len(t, got.EmergencyContacts, 1)
	assert.Equal(t, "c1", got.EmergencyContacts[0].ID)
	assert.Equal(t, 0, rec.writes(kv.SettingsKey), "loading never writes")
}

func TestStore_LoadMalformedRecordUsesDefaults(t *testing.T) {
	for _, raw := range []string{`{not json`, `42`, `"text"`} {
		rec := newRecordingKV()
		rec.data[kv.SettingsKey] = raw

		store := NewStore(rec)
		store.Load(context.Background())

		assert.Equal(t, Defaults(), store.Settings(), "record %q", raw)
		assert.False(t, store.Loading())
	}
}

func TestStore_LoadRunsOnce(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)

	store.Load(context.Background())
	rec.data[kv.SettingsKey] = `{"walkingModeAutoNotify": false}`
	store.Load(context.Background())

	assert.Equal(t, 1, rec.gets)
	assert.True(t, store.Settings().WalkingModeAutoNotify)
}

func TestStore_UpdateBeforeLoadIsKept(t *testing.T) {
	rec := newRecordingKV()
	rec.data[kv.SettingsKey] = `{"walkingModeAutoNotify": false}`

	store := NewStore(rec)
	store.Merge(Partial{Templates: &TemplateSettings{DefaultMessage: "edited"}})
	store.Load(context.Background())

	got := store.Settings()
	assert.Equal(t, "edited", got.Templates.DefaultMessage)
	assert.False(t, store.Loading())
}

func TestStore_UpdateEqualIsNoOp(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)
	store.Load(context.Background())

	changed := store.Update(func(prev AppSettings) AppSettings { return prev })
	flush(t, store)

	assert.False(t, changed)
	assert.Equal(t, 0, rec.writes(kv.SettingsKey))
}

func TestStore_IdenticalContentWritesOnce(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)
	store.Load(context.Background())

	off := false
	assert.True(t, store.Merge(Partial{WalkingModeAutoNotify: &off}))
	assert.False(t, store.Merge(Partial{WalkingModeAutoNotify: &off}))
	flush(t, store)

	assert.Equal(t, 1, rec.writes(kv.SettingsKey))
	assert.False(t, storedSettings(t, rec).WalkingModeAutoNotify)
}

func TestStore_UpdateVisibleBeforeWriteLands(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)
	store.Load(context.Background())

	release := rec.holdWrites()
	done := make(chan struct{})
	go func() {
		store.SetShakeSensitivity(2.2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Update blocked on storage")
	}
	assert.Equal(t, 2.2, store.Settings().Gesture.ShakeSensitivity)
	assert.Equal(t, 0, rec.writes(kv.SettingsKey))

	release()
	flush(t, store)
	assert.Equal(t, 1, rec.writes(kv.SettingsKey))
}

func TestStore_LastUpdateWins(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)
	store.Load(context.Background())

	release := rec.holdWrites()
	for _, v := range []float64{0.6, 1.0, 1.8, 2.4, 2.9} {
		store.SetShakeSensitivity(v)
	}
	release()
	flush(t, store)

	assert.Equal(t, 2.9, storedSettings(t, rec).Gesture.ShakeSensitivity)
	assert.LessOrEqual(t, rec.writes(kv.SettingsKey), 5)

	// Writes land in submission order: sensitivities never go backwards.
	last := 0.0
	for _, raw := range rec.history {
		var s AppSettings
		require.NoError(t, json.Unmarshal([]byte(raw), &s))
		assert.Greater(t, s.Gesture.ShakeSensitivity, last)
		last = s.Gesture.ShakeSensitivity
	}
}

func TestStore_RevertAfterChangeWritesAgain(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)
	store.Load(context.Background())

	store.SetShakeSensitivity(2.0)
	store.SetShakeSensitivity(DefaultShakeSensitivity)
	flush(t, store)

	assert.Equal(t, DefaultShakeSensitivity, storedSettings(t, rec).Gesture.ShakeSensitivity)
}

func TestStore_SensitivityStoredUnclamped(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())

	store.SetShakeSensitivity(7.5)

	assert.Equal(t, 7.5, store.Settings().Gesture.ShakeSensitivity)
	assert.Equal(t, MaxShakeSensitivity, ClampSensitivity(store.Settings().Gesture.ShakeSensitivity))
}

func TestStore_NonFiniteSensitivityIsMapped(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"positive infinity", math.Inf(1), MaxShakeSensitivity},
		{"negative infinity", math.Inf(-1), MinShakeSensitivity},
		{"nan", math.NaN(), DefaultShakeSensitivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecordingKV()
			store := NewStore(rec)
			store.Load(context.Background())

			store.SetShakeSensitivity(2.0)
			store.SetShakeSensitivity(tt.in)
			_, err := store.Contacts().Add(ContactDraft{Name: "Ana", Phone: "9195551234"})
			require.NoError(t, err)
			flush(t, store)

			assert.Equal(t, tt.want, store.Settings().Gesture.ShakeSensitivity)
			stored := storedSettings(t, rec)
			assert.Equal(t, tt.want, stored.Gesture.ShakeSensitivity)
			require.Len(t, stored.EmergencyContacts, 1)
			assert.Equal(t, "Ana", stored.EmergencyContacts[0].Name)
		})
	}
}

func TestStore_RepeatedNaNSensitivityIsNoOp(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())
	store.SetShakeSensitivity(2.0)

	calls := 0
	store.OnChange(func(AppSettings) { calls++ })

	assert.True(t, store.SetShakeSensitivity(math.NaN()))
	assert.False(t, store.SetShakeSensitivity(math.NaN()))
	assert.Equal(t, 1, calls)
}

func TestStore_NonFiniteVolumeIsMapped(t *testing.T) {
	rec := newRecordingKV()
	store := NewStore(rec)
	store.Load(context.Background())

	voice := store.Settings().Voice
	voice.Volume = math.Inf(1)
	store.Merge(Partial{Voice: &voice})
	flush(t, store)

	assert.Equal(t, 1.0, store.Settings().Voice.Volume)
	assert.Equal(t, 1.0, storedSettings(t, rec).Voice.Volume)
}

func TestStore_ReducerMayReadStore(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())
	_, err := store.Contacts().Add(ContactDraft{Name: "Ana", Phone: "9195551234"})
	require.NoError(t, err)

	done := make(chan bool)
	go func() {
		done <- store.Update(func(prev AppSettings) AppSettings {
			prev.Templates.DefaultMessage = "contacts: " + store.Contacts().List()[0].Name
			prev.Gesture.ShakeSensitivity = store.Settings().Gesture.ShakeSensitivity + 1
			return prev
		})
	}()

	select {
	case changed := <-done:
		assert.True(t, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("Update did not return while the reducer read the store")
	}
	assert.Equal(t, "contacts: Ana", store.Settings().Templates.DefaultMessage)
	assert.Equal(t, DefaultShakeSensitivity+1, store.Settings().Gesture.ShakeSensitivity)
}

func TestStore_UpdateRetriesWhenOverlapped(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())

	calls := 0
	store.Update(func(prev AppSettings) AppSettings {
		calls++
		if calls == 1 {
			store.SetShakeSensitivity(2.5)
		}
		prev.Templates.DefaultMessage = "Help"
		return prev
	})

	assert.Equal(t, 2, calls)
	got := store.Settings()
	assert.Equal(t, 2.5, got.Gesture.ShakeSensitivity)
	assert.Equal(t, "Help", got.Templates.DefaultMessage)
}

func TestStore_MergePreservesUntouchedRecords(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())
	before := store.Settings()

	store.Merge(Partial{Decoy: &DecoySettings{Enabled: false, Selected: DecoyWeather}})

	after := store.Settings()
	assert.Equal(t, DecoyWeather, after.Decoy.Selected)
	assert.Equal(t, before.Voice, after.Voice)
	assert.Equal(t, before.Privacy, after.Privacy)
	assert.Equal(t, before.Gesture, after.Gesture)
}

func TestStore_SettingsReturnsCopy(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())
	_, err := store.Contacts().Add(ContactDraft{Name: "Ana", Phone: "9195551234"})
	require.NoError(t, err)

	snapshot := store.Settings()
	snapshot.EmergencyContacts[0].Name = "mutated"

	assert.Equal(t, "Ana", store.Settings().EmergencyContacts[0].Name)
}

func TestStore_OnChange(t *testing.T) {
	store := NewStore(newRecordingKV())
	store.Load(context.Background())

	var seen []float64
	store.OnChange(func(s AppSettings) {
		seen = append(seen, s.Gesture.ShakeSensitivity)
	})

	store.SetShakeSensitivity(2.0)
	store.SetShakeSensitivity(2.0)
	store.SetShakeSensitivity(0.5)

	assert.Equal(t, []float64{2.0, 0.5}, seen)
}

func TestStore_ClearAllData(t *testing.T) {
	rec := newRecordingKV()
	rec.data[kv.SettingsKey] = `{}`
	rec.data[kv.LocationHistoryKey] = `[]`
	rec.data[kv.AlertLogKey] = `[]`

	store := NewStore(rec)
	store.Load(context.Background())

	assert.True(t, store.ClearAllData(context.Background()))

	_, ok := rec.value(kv.LocationHistoryKey)
	assert.False(t, ok)
	_, ok = rec.value(kv.AlertLogKey)
	assert.False(t, ok)
	_, ok = rec.value(kv.SettingsKey)
	assert.True(t, ok)
}

func TestStore_PersistsThroughSQLite(t *testing.T) {
	backend, err := kv.NewSQLiteBackend(kv.DriverModernc, t.TempDir()+"/settings.db")
	require.NoError(t, err)
	defer backend.Close()
	adapter := kv.NewAdapter(backend, nil)

	first := NewStore(adapter)
	first.Load(context.Background())
	_, err = first.Contacts().Add(ContactDraft{Name: "Ana", Phone: "+1 (919) 555-1234"})
	require.NoError(t, err)
	flush(t, first)

	second := NewStore(adapter)
	second.Load(context.Background())
	contacts := second.Contacts().List()
	require.Len(t, contacts, 1)
	assert.Equal(t, "+19195551234", contacts[0].Phone)
}
