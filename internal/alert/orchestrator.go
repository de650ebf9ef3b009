// ABOUTME: Emergency trigger pipeline from shake or button press to a fan-out SMS
// ABOUTME: Enforces one trigger at a time and degrades gracefully without location

package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/2389/guardian/internal/msgtemplate"
	"github.com/2389/guardian/internal/settings"
)

var (
	// ErrNoContacts is reported when no emergency contacts are configured
	ErrNoContacts = errors.New("no emergency contacts configured")

	// ErrSMSUnavailable is reported when the device cannot send SMS
	ErrSMSUnavailable = errors.New("SMS is not supported on this device")

	// ErrSendFailed wraps failures of the fan-out send
	ErrSendFailed = errors.New("could not send emergency SMS")
)

// Message pieces.
const (
	FallbackMessage     = "Emergency Alert! I need help."
	LocationPlaceholder = "Current Location"
	LocationUnavailable = "Unavailable"
	DefaultSenderName   = "User"
	timeLayout          = "01/02/2006, 3:04:05 PM"
)

// Default budgets.
const (
	DefaultLocationTimeout = 10 * time.Second
	DefaultSendTimeout     = 30 * time.Second
)

// Outcome classifies the result of a trigger
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeBusy        Outcome = "busy"
	OutcomeNoContacts  Outcome = "no_contacts"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeFailed      Outcome = "failed"
)

// Report describes one trigger attempt.
type Report struct {
	ID           string
	At           time.Time
	Outcome      Outcome
	Err          error
	Recipients   []string
	Message      string
	LocationLink string
}

// Orchestrator runs the emergency trigger pipeline.
type Orchestrator struct {
	settings SettingsSource
	sms      SMSSender
	location LocationProvider
	notifier Notifier
	journal  *Journal
	logger   *slog.Logger
	now      func() time.Time

	senderName      string
	locationTimeout time.Duration
	sendTimeout     time.Duration

	inProgress atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSMS sets the SMS capability. Without it every trigger is unsupported.
func WithSMS(sms SMSSender) Option {
	return func(o *Orchestrator) { o.sms = sms }
}

// WithLocation sets the location capability. Without it alerts carry no location.
func WithLocation(location LocationProvider) Option {
	return func(o *Orchestrator) { o.location = location }
}

// WithNotifier sets where user-visible outcomes are shown.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithJournal records every trigger and obtained location.
func WithJournal(j *Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock overrides the time source used for [TIME] and reports.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSenderName sets the value substituted for [NAME].
func WithSenderName(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.senderName = name
		}
	}
}

// WithTimeouts bounds the location fetch and the send. Zero keeps the default.
func WithTimeouts(location, send time.Duration) Option {
	return func(o *Orchestrator) {
		if location > 0 {
			o.locationTimeout = location
		}
		if send > 0 {
			o.sendTimeout = send
		}
	}
}

// New creates an Orchestrator reading contacts and template from src.
func New(src SettingsSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings:        src,
		logger:          slog.Default(),
		now:             time.Now,
		senderName:      DefaultSenderName,
		locationTimeout: DefaultLocationTimeout,
		sendTimeout:     DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "alert")
	return o
}

// InProgress reports whether a trigger is running.
func (o *Orchestrator) InProgress() bool {
	return o.inProgress.Load()
}

// Trigger runs the pipeline once. A call made while another trigger is
// running returns immediately with OutcomeBusy and has no effect.
func (o *Orchestrator) Trigger(ctx context.Context) (report Report) {
	if !o.inProgress.CompareAndSwap(false, true) {
		o.logger.Debug("trigger ignored, already in progress")
		return Report{Outcome: OutcomeBusy, At: o.now()}
	}
	defer o.inProgress.Store(false)

	report = Report{ID: uuid.NewString(), At: o.now()}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("trigger panicked", "panic", r)
			report.Outcome = OutcomeFailed
			report.Err = fmt.Errorf("%w: %v", ErrSendFailed, r)
		}
		o.finish(ctx, report)
	}()

	o.run(ctx, &report)
	return report
}

func (o *Orchestrator) run(ctx context.Context, report *Report) {
	s := o.settings.Settings()

	if len(s.EmergencyContacts) == 0 {
		report.Outcome = OutcomeNoContacts
		report.Err = ErrNoContacts
		return
	}

	if !o.smsAvailable(ctx) {
		report.Outcome = OutcomeUnsupported
		report.Err = ErrSMSUnavailable
		return
	}

	pos, located := o.locate(ctx)
	if located {
		report.LocationLink = pos.MapLink()
		if o.journal != nil {
			o.journal.RecordLocation(ctx, LocationRecord{At: o.now(), Position: pos}, s.Privacy.AutoDelete)
		}
	}

	report.Message = o.compose(s.Templates.DefaultMessage, pos, located)
	report.Recipients = make([]string, 0, len(s.EmergencyContacts))
	for _, c := range s.EmergencyContacts {
		report.Recipients = append(report.Recipients, c.Phone)
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.sendTimeout)
	defer cancel()
	if err := o.sms.Send(sendCtx, report.Recipients, report.Message); err != nil {
		report.Outcome = OutcomeFailed
		report.Err = fmt.Errorf("%w: %w", ErrSendFailed, err)
		return
	}
	report.Outcome = OutcomeSent
}

func (o *Orchestrator) smsAvailable(ctx context.Context) bool {
	if o.sms == nil {
		return false
	}
	ok, err := o.sms.Available(ctx)
	if err != nil {
		o.logger.Warn("SMS availability check failed", "error", err)
		return false
	}
	return ok
}

// locate returns the current position, or false when permission is denied,
// the provider fails, or the location budget runs out.
func (o *Orchestrator) locate(ctx context.Context) (Position, bool) {
	if o.location == nil {
		return Position{}, false
	}

	granted, err := o.location.RequestPermission(ctx)
	if err != nil {
		o.logger.Debug("location permission request failed", "error", err)
		return Position{}, false
	}
	if !granted {
		o.logger.Debug("location permission denied")
		return Position{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, o.locationTimeout)
	defer cancel()

	type fix struct {
		pos Position
		err error
	}
	result := make(chan fix, 1)
	go func() {
		pos, err := o.location.CurrentPosition(ctx, AccuracyBalanced)
		result <- fix{pos: pos, err: err}
	}()

	select {
	case f := <-result:
		if f.err != nil {
			o.logger.Debug("location unavailable", "error", f.err)
			return Position{}, false
		}
		return f.pos, true
	case <-ctx.Done():
		o.logger.Debug("location timed out", "timeout", o.locationTimeout)
		return Position{}, false
	}
}

// compose expands the template and appends the location line.
func (o *Orchestrator) compose(tmpl string, pos Position, located bool) string {
	location := LocationPlaceholder
	link := LocationUnavailable
	if located {
		location = pos.String()
		link = pos.MapLink()
	}

	body := FallbackMessage
	if tmpl != "" {
		body = msgtemplate.Apply(tmpl, msgtemplate.Vars{
			Name:     o.senderName,
			Location: location,
			Time:     o.now().Format(timeLayout),
		})
	}
	return body + "\n\nMy Location: " + link
}

// Preview expands the configured template for an editor preview.
func (o *Orchestrator) Preview(s settings.AppSettings) string {
	if s.Templates.DefaultMessage == "" {
		return FallbackMessage
	}
	return msgtemplate.Apply(s.Templates.DefaultMessage, msgtemplate.Vars{
		Name:     o.senderName,
		Location: LocationPlaceholder,
		Time:     o.now().Format(timeLayout),
	})
}

// finish journals the attempt and surfaces user-visible failures.
func (o *Orchestrator) finish(ctx context.Context, report Report) {
	o.logger.Info("emergency trigger finished",
		"id", report.ID,
		"outcome", report.Outcome,
		"recipients", len(report.Recipients),
		"located", report.LocationLink != "",
	)

	if o.journal != nil {
		o.journal.RecordAlert(ctx, LogEntry{
			ID:           report.ID,
			At:           report.At,
			Outcome:      report.Outcome,
			Recipients:   report.Recipients,
			LocationLink: report.LocationLink,
			Error:        errString(report.Err),
		}, o.settings.Settings().Privacy.AutoDelete)
	}

	if o.notifier == nil {
		return
	}
	switch report.Outcome {
	case OutcomeNoContacts:
		o.notifier.Notify("No Contacts", "Please add emergency contacts first.")
	case OutcomeUnsupported:
		o.notifier.Notify("Error", "SMS is not supported on this device.")
	case OutcomeFailed:
		o.notifier.Notify("Failed", "Could not trigger emergency SMS.")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
