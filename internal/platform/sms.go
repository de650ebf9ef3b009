// ABOUTME: Console SMS sender printing the fan-out and optionally appending to an outbox file
// ABOUTME: Stands in for the device messaging service outside a phone

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// OutboxRecord is one line of the outbox file.
type OutboxRecord struct {
	At         time.Time `json:"at"`
	Recipients []string  `json:"recipients"`
	Body       string    `json:"body"`
}

// ConsoleSMS implements alert.SMSSender on a terminal.
type ConsoleSMS struct {
	out     io.Writer
	enabled bool
	outbox  string
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewConsoleSMS creates a sender writing to out. When enabled is false the
// device reports no SMS capability. outbox may be empty.
func NewConsoleSMS(out io.Writer, enabled bool, outbox string, logger *slog.Logger) *ConsoleSMS {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSMS{
		out:     out,
		enabled: enabled,
		outbox:  outbox,
		logger:  logger.With("component", "platform.sms"),
		now:     time.Now,
	}
}

// Available reports whether sending is enabled.
func (c *ConsoleSMS) Available(context.Context) (bool, error) {
	return c.enabled, nil
}

// Send prints one message addressed to every recipient.
func (c *ConsoleSMS) Send(ctx context.Context, recipients []string, body string) error {
	if !c.enabled {
		return fmt.Errorf("sms disabled")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	yellow := color.New(color.FgYellow, color.Bold)
	gray := color.New(color.FgHiBlack)
	yellow.Fprintf(c.out, "SMS → %s\n", strings.Join(recipients, ", "))
	for _, line := range strings.Split(body, "\n") {
		gray.Fprintf(c.out, "  │ ")
		fmt.Fprintln(c.out, line)
	}

	if c.outbox == "" {
		return nil
	}
	if err := c.appendOutbox(OutboxRecord{At: c.now(), Recipients: recipients, Body: body}); err != nil {
		return fmt.Errorf("writing outbox: %w", err)
	}
	c.logger.Debug("message written to outbox", "path", c.outbox, "recipients", len(recipients))
	return nil
}

func (c *ConsoleSMS) appendOutbox(rec OutboxRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.outbox), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(c.outbox, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(rec)
}

// ReadOutbox returns every record in the outbox file at path.
func ReadOutbox(path string) ([]OutboxRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []OutboxRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec OutboxRecord
		if err := dec.Decode(&rec); err != nil {
			return records, fmt.Errorf("decoding outbox: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
