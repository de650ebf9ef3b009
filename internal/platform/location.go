// ABOUTME: Static location provider answering with configured coordinates
// ABOUTME: Simulates permission and fix latency while honouring cancellation

package platform

import (
	"context"
	"time"

	"github.com/2389/guardian/internal/alert"
)

// StaticLocation implements alert.LocationProvider with a fixed position.
type StaticLocation struct {
	granted  bool
	position alert.Position
	latency  time.Duration
}

// NewStaticLocation creates a provider. granted is the answer to every
// permission request; latency delays each fix.
func NewStaticLocation(granted bool, position alert.Position, latency time.Duration) *StaticLocation {
	return &StaticLocation{granted: granted, position: position, latency: latency}
}

// RequestPermission returns the configured answer.
func (l *StaticLocation) RequestPermission(context.Context) (bool, error) {
	return l.granted, nil
}

// CurrentPosition returns the configured position after the latency, or
// ctx.Err() if ctx ends first.
func (l *StaticLocation) CurrentPosition(ctx context.Context, _ alert.Accuracy) (alert.Position, error) {
	if l.latency <= 0 {
		return l.position, ctx.Err()
	}
	timer := time.NewTimer(l.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return l.position, nil
	case <-ctx.Done():
		return alert.Position{}, ctx.Err()
	}
}
