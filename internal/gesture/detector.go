// ABOUTME: Shake detector turning raw accelerometer samples into discrete shake events
// ABOUTME: Applies a sensitivity-derived delta threshold with a cooldown window

package gesture

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389/guardian/internal/settings"
)

// Cooldown suppresses further shake events after one is emitted.
const Cooldown = 1000 * time.Millisecond

// ErrSensorUnavailable is returned by a MotionSource that cannot deliver samples
var ErrSensorUnavailable = errors.New("motion sensor unavailable")

// Sample is one 3-axis acceleration reading
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MotionSource delivers raw samples to a callback until unsubscribed.
// The detector never holds its own lock while calling Subscribe or the
// returned unsubscribe func, so a source may deliver samples from inside
// Subscribe and may wait in unsubscribe for an in-flight callback.
type MotionSource interface {
	Subscribe(fn func(Sample)) (unsubscribe func(), err error)
}

// Config controls whether the detector listens and how sensitive it is.
type Config struct {
	Enabled     bool
	Sensitivity float64
}

// ConfigFrom extracts the detector config from app settings.
func ConfigFrom(s settings.AppSettings) Config {
	return Config{
		Enabled:     s.Gesture.Enabled && s.Gesture.Type == settings.GestureShake,
		Sensitivity: s.Gesture.ShakeSensitivity,
	}
}

// Threshold returns the summed axis delta a sample must exceed to count as a
// shake. Sensitivity is clamped to [0.5, 3.0]; higher sensitivity means a
// lower threshold.
func Threshold(sensitivity float64) float64 {
	return 2.6 - settings.ClampSensitivity(sensitivity)*0.55
}

// Detector subscribes to a MotionSource while enabled and calls the current
// handler for every shake. The handler can be swapped at any time without
// touching the subscription.
type Detector struct {
	source MotionSource
	logger *slog.Logger
	now    func() time.Time

	handler atomic.Pointer[func()]

	// configMu serializes Configure and Close; mu guards detection state.
	configMu sync.Mutex

	mu            sync.Mutex
	cfg           Config
	subscribed    bool
	unsubscribe   func()
	generation    uint64
	last          Sample
	cooldownUntil time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithClock overrides the time source used for the cooldown.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// New creates a disabled detector over source. A nil source means the
// device has no motion sensor; the detector then never emits.
func New(source MotionSource, opts ...Option) *Detector {
	d := &Detector{
		source: source,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "gesture")
	return d
}

// OnShake replaces the handler invoked for each shake event.
func (d *Detector) OnShake(fn func()) {
	if fn == nil {
		d.handler.Store(nil)
		return
	}
	d.handler.Store(&fn)
}

// Configure applies cfg. The subscription is dropped when disabled and
// re-established when enabled or when the sensitivity changes, so a new
// threshold applies from the next sample on.
func (d *Detector) Configure(cfg Config) {
	d.configMu.Lock()
	defer d.configMu.Unlock()

	d.mu.Lock()
	if cfg == d.cfg {
		d.mu.Unlock()
		return
	}
	d.cfg = cfg
	stop := d.detachLocked()
	generation := d.generation
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	if !cfg.Enabled {
		return
	}
	if d.source == nil {
		d.logger.Warn("shake detection unavailable", "error", ErrSensorUnavailable)
		return
	}

	threshold := Threshold(cfg.Sensitivity)
	unsubscribe, err := d.source.Subscribe(func(s Sample) {
		d.observe(generation, threshold, s)
	})
	if err != nil {
		d.logger.Warn("shake detection unavailable", "error", err)
		return
	}

	d.mu.Lock()
	d.unsubscribe = unsubscribe
	d.subscribed = true
	d.mu.Unlock()
	d.logger.Debug("shake detection armed", "sensitivity", cfg.Sensitivity, "threshold", threshold)
}

// Active reports whether a sensor subscription is held.
func (d *Detector) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.subscribed
}

// Close drops the subscription.
func (d *Detector) Close() {
	d.configMu.Lock()
	defer d.configMu.Unlock()

	d.mu.Lock()
	d.cfg = Config{}
	stop := d.detachLocked()
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// detachLocked retires the current subscription so its late samples are
// ignored, and returns its unsubscribe func for the caller to run unlocked.
func (d *Detector) detachLocked() func() {
	d.generation++
	stop := d.unsubscribe
	d.unsubscribe = nil
	d.subscribed = false
	return stop
}

// observe runs the detection step for one sample. Samples from a
// subscription that has since been replaced are ignored.
func (d *Detector) observe(generation uint64, threshold float64, s Sample) {
	d.mu.Lock()
	if generation != d.generation {
		d.mu.Unlock()
		return
	}
	now := d.now()
	if now.Before(d.cooldownUntil) {
		d.mu.Unlock()
		return
	}

	delta := math.Abs(s.X-d.last.X) + math.Abs(s.Y-d.last.Y) + math.Abs(s.Z-d.last.Z)
	d.last = s
	shake := delta > threshold
	if shake {
		d.cooldownUntil = now.Add(Cooldown)
	}
	d.mu.Unlock()

	if !shake {
		return
	}
	d.logger.Debug("shake detected", "delta", delta, "threshold", threshold)
	if fn := d.handler.Load(); fn != nil {
		(*fn)()
	}
}
