// ABOUTME: Tests for shake threshold math, cooldown handling, and subscription lifecycle
// ABOUTME: Drives the detector with a manual motion source and a fake clock

package gesture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/guardian/internal/settings"
)

// manualSource delivers samples only when the test calls emit.
type manualSource struct {
	mu           sync.Mutex
	fn           func(Sample)
	subscribes   int
	unsubscribes int
	err          error
}

func (m *manualSource) Subscribe(fn func(Sample)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.subscribes++
	m.fn = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.unsubscribes++
		m.fn = nil
	}, nil
}

func (m *manualSource) emit(s Sample) {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupDetector(t *testing.T, sensitivity float64) (*Detector, *manualSource, *fakeClock, *int) {
	t.Helper()
	source := &manualSource{}
	clock := newFakeClock()
	d := New(source, WithClock(clock.Now))
	shakes := 0
	d.OnShake(func() { shakes++ })
	d.Configure(Config{Enabled: true, Sensitivity: sensitivity})
	t.Cleanup(d.Close)
	return d, source, clock, &shakes
}

func TestThreshold(t *testing.T) {
	assert.InDelta(t, 2.325, Threshold(0.5), 1e-9)
	assert.InDelta(t, 0.95, Threshold(3.0), 1e-9)
	assert.InDelta(t, 1.83, Threshold(1.4), 1e-9)

	// Out-of-range values are clamped, not rejected.
	assert.Equal(t, Threshold(0.5), Threshold(-2))
	assert.Equal(t, Threshold(3.0), Threshold(10))
}

func TestThreshold_DecreasesWithSensitivity(t *testing.T) {
	prev := Threshold(0.5)
	for s := 0.55; s <= 3.0; s += 0.05 {
		cur := Threshold(s)
		assert.Less(t, cur, prev, "sensitivity %.2f", s)
		prev = cur
	}
}

func TestDetector_BelowThresholdNoEvent(t *testing.T) {
	_, source, _, shakes := setupDetector(t, 1.4) // threshold 1.83

	source.emit(Sample{X: 1.0})
	source.emit(Sample{X: 1.0, Y: 0.8})
	source.emit(Sample{X: 1.0, Y: 0.8, Z: 0.83})

	assert.Equal(t, 0, *shakes)
}

func TestDetector_AboveThresholdEmitsOnce(t *testing.T) {
	_, source, _, shakes := setupDetector(t, 1.4)

	source.emit(Sample{X: 1.0, Y: 1.0})

	assert.Equal(t, 1, *shakes)
}

func TestDetector_DeltaUsesPrecedingSample(t *testing.T) {
	_, source, _, shakes := setupDetector(t, 1.4)

	// Cumulative drift of 3.0 never exceeds 1.83 between neighbours.
	for _, x := range []float64{1.0, 2.0, 3.0} {
		source.emit(Sample{X: x})
	}

	assert.Equal(t, 0, *shakes)
}

func TestDetector_Cooldown(t *testing.T) {
	_, source, clock, shakes := setupDetector(t, 1.4)

	source.emit(Sample{X: 2.0})
	require.Equal(t, 1, *shakes)

	clock.Advance(500 * time.Millisecond)
	source.emit(Sample{X: -2.0})
	source.emit(Sample{X: 2.0})
	assert.Equal(t, 1, *shakes, "samples in cooldown are suppressed")

	clock.Advance(499 * time.Millisecond)
	source.emit(Sample{X: -2.0})
	assert.Equal(t, 1, *shakes)

	clock.Advance(time.Millisecond)
	// Compared with the last recorded sample (X=2.0), not the dropped ones.
	source.emit(Sample{X: 1.0})
	assert.Equal(t, 1, *shakes)
	source.emit(Sample{X: -1.0})
	assert.Equal(t, 2, *shakes)
}

func TestDetector_DisabledHoldsNoSubscription(t *testing.T) {
	source := &manualSource{}
	d := New(source)
	shakes := 0
	d.OnShake(func() { shakes++ })

	d.Configure(Config{Enabled: false, Sensitivity: 3})
	source.emit(Sample{X: 10})

	assert.False(t, d.Active())
	assert.Equal(t, 0, source.subscribes)
	assert.Equal(t, 0, shakes)

	d.Configure(Config{Enabled: true, Sensitivity: 3})
	assert.True(t, d.Active())
	source.emit(Sample{X: 10})
	assert.Equal(t, 1, shakes)

	d.Configure(Config{Enabled: false, Sensitivity: 3})
	assert.False(t, d.Active())
	assert.Equal(t, 1, source.unsubscribes)
}

func TestDetector_SensitivityChangeResubscribes(t *testing.T) {
	d, source, _, shakes := setupDetector(t, 0.5) // threshold 2.325

	source.emit(Sample{X: 2.0})
	assert.Equal(t, 0, *shakes)

	d.Configure(Config{Enabled: true, Sensitivity: 3.0}) // threshold 0.95
	assert.Equal(t, 2, source.subscribes)
	assert.Equal(t, 1, source.unsubscribes)

	source.emit(Sample{X: 1.0})
	assert.Equal(t, 1, *shakes, "new threshold applies to the next sample")
}

func TestDetector_SameConfigKeepsSubscription(t *testing.T) {
	d, source, _, _ := setupDetector(t, 1.4)

	d.Configure(Config{Enabled: true, Sensitivity: 1.4})

	assert.Equal(t, 1, source.subscribes)
	assert.Equal(t, 0, source.unsubscribes)
}

func TestDetector_HandlerSwapKeepsSubscription(t *testing.T) {
	d, source, _, shakes := setupDetector(t, 1.4)

	other := 0
	d.OnShake(func() { other++ })
	source.emit(Sample{X: 5})

	assert.Equal(t, 1, source.subscribes)
	assert.Equal(t, 0, *shakes)
	assert.Equal(t, 1, other)
}

func TestDetector_NilHandler(t *testing.T) {
	d, source, _, _ := setupDetector(t, 1.4)
	d.OnShake(nil)

	assert.NotPanics(t, func() { source.emit(Sample{X: 5}) })
}

func TestDetector_StaleSubscriptionIgnored(t *testing.T) {
	source := &manualSource{}
	d := New(source)
	shakes := 0
	d.OnShake(func() { shakes++ })
	d.Configure(Config{Enabled: true, Sensitivity: 3.0})

	stale := source.fn
	d.Configure(Config{Enabled: false})
	stale(Sample{X: 10})

	assert.Equal(t, 0, shakes)
}

func TestDetector_MissingSensor(t *testing.T) {
	d := New(nil)
	d.OnShake(func() { t.Fatal("no events without a sensor") })

	assert.NotPanics(t, func() {
		d.Configure(Config{Enabled: true, Sensitivity: 1.4})
	})
	assert.False(t, d.Active())
}

func TestDetector_SubscribeFailure(t *testing.T) {
	source := &manualSource{err: errors.New("no accelerometer")}
	d := New(source)

	d.Configure(Config{Enabled: true, Sensitivity: 1.4})

	assert.False(t, d.Active())
}

// eagerSource delivers a sample from inside Subscribe and lets one last
// callback finish from inside unsubscribe.
type eagerSource struct {
	sample Sample
}

func (e *eagerSource) Subscribe(fn func(Sample)) (func(), error) {
	fn(e.sample)
	return func() { fn(e.sample) }, nil
}

func TestDetector_SourceCallingBackSynchronously(t *testing.T) {
	d := New(&eagerSource{sample: Sample{X: 10}})
	var mu sync.Mutex
	shakes := 0
	d.OnShake(func() {
		mu.Lock()
		shakes++
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Configure(Config{Enabled: true, Sensitivity: 3.0})
		d.Configure(Config{Enabled: false})
		d.Close()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("detector deadlocked on a synchronous motion source")
	}
	assert.False(t, d.Active())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, shakes, "the sample delivered on unsubscribe belongs to a retired subscription")
}

func TestConfigFrom(t *testing.T) {
	s := settings.Defaults()
	s.Gesture.ShakeSensitivity = 2.2
	assert.Equal(t, Config{Enabled: true, Sensitivity: 2.2}, ConfigFrom(s))

	s.Gesture.Type = settings.GestureVolume
	assert.False(t, ConfigFrom(s).Enabled)

	s.Gesture.Type = settings.GestureShake
	s.Gesture.Enabled = false
	assert.False(t, ConfigFrom(s).Enabled)
}
