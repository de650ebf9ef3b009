// ABOUTME: Wires storage, settings, capabilities, and the alert pipeline for one CLI run
// ABOUTME: Flushes pending settings writes and closes storage on exit

package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/guardian/internal/addressbook"
	"github.com/2389/guardian/internal/alert"
	"github.com/2389/guardian/internal/config"
	"github.com/2389/guardian/internal/kv"
	"github.com/2389/guardian/internal/platform"
	"github.com/2389/guardian/internal/settings"
)

const flushTimeout = 5 * time.Second

type app struct {
	cfg    *config.Config
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	kv           *kv.Adapter
	storage      io.Closer
	store        *settings.Store
	journal      *alert.Journal
	orchestrator *alert.Orchestrator
	importer     *addressbook.Importer
}

func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) *app {
	opts := kv.Options{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path}
	if cfg.Storage.Driver == config.DriverMemory {
		opts = kv.Options{}
	}
	store, closer := kv.Open(opts, logger)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		kv:      store,
		storage: closer,
	}

	a.store = settings.NewStore(store, settings.WithLogger(logger))
	a.store.Load(ctx)

	a.journal = alert.NewJournal(store, cfg.Alert.LogLimit, logger, alert.WithJournalLock(a.store.DataLock()))

	var location alert.LocationProvider
	if cfg.Location.Enabled {
		location = platform.NewStaticLocation(
			cfg.Location.Permission == config.PermissionGranted,
			alert.Position{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude},
			cfg.Location.Latency,
		)
	}

	a.orchestrator = alert.New(a.store,
		alert.WithSMS(platform.NewConsoleSMS(a.syncOut(), cfg.SMS.Enabled, cfg.SMS.Outbox, logger)),
		alert.WithLocation(location),
		alert.WithNotifier(platform.NewConsoleNotifier(a.syncOut())),
		alert.WithJournal(a.journal),
		alert.WithLogger(logger),
		alert.WithSenderName(cfg.Alert.SenderName),
		alert.WithTimeouts(cfg.Alert.LocationTimeout, cfg.Alert.SendTimeout),
	)

	var book addressbook.Source
	if cfg.AddressBook.Path != "" {
		book = platform.NewFileAddressBook(cfg.AddressBook.Path)
	}
	a.importer = addressbook.NewImporter(book, a.store.Contacts(), logger)

	return a
}

// close waits for settings writes to land, then closes storage.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.store.Flush(ctx); err != nil {
		a.logger.Warn("settings may not have been saved", "error", err)
	}
	if err := a.storage.Close(); err != nil {
		a.logger.Warn("closing storage", "error", err)
	}
}

// syncOut serializes writes to the command output across goroutines.
func (a *app) syncOut() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		a.outMu.Lock()
		defer a.outMu.Unlock()
		return a.out.Write(p)
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
