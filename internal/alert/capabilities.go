// ABOUTME: Device capability interfaces consumed by the emergency trigger pipeline
// ABOUTME: SMS, location, and user notification seams; nil means the capability is absent

package alert

import (
	"context"
	"strconv"

	"github.com/2389/guardian/internal/settings"
)

// Accuracy is the precision tier requested from a location provider
type Accuracy string

const (
	AccuracyLow      Accuracy = "low"
	AccuracyBalanced Accuracy = "balanced"
	AccuracyHigh     Accuracy = "high"
)

// Position is a geographic fix
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapLink formats p as a map URL.
func (p Position) MapLink() string {
	return "https://www.google.com/maps?q=" + formatCoord(p.Latitude) + "," + formatCoord(p.Longitude)
}

// String formats p as "lat, lng".
func (p Position) String() string {
	return formatCoord(p.Latitude) + ", " + formatCoord(p.Longitude)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SMSSender sends one text message to many recipients in a single request.
type SMSSender interface {
	Available(ctx context.Context) (bool, error)
	Send(ctx context.Context, recipients []string, body string) error
}

// LocationProvider resolves the device position. CurrentPosition should
// honour ctx; the orchestrator stops waiting when ctx expires either way.
type LocationProvider interface {
	RequestPermission(ctx context.Context) (granted bool, err error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (Position, error)
}

// Notifier shows a user-visible message, such as an alert dialog.
type Notifier interface {
	Notify(title, message string)
}

// SettingsSource provides the current settings. *settings.Store satisfies it.
type SettingsSource interface {
	Settings() settings.AppSettings
}
