// ABOUTME: Motion source decoding JSON-lines accelerometer samples from a stream
// ABOUTME: Delivers samples to the single current subscriber from one reader goroutine

package platform

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/guardian/internal/gesture"
)

// ReaderMotion implements gesture.MotionSource over lines like
// {"x":0.1,"y":0.9,"z":0.2}. Samples arriving with no subscriber are dropped.
type ReaderMotion struct {
	r      io.Reader
	logger *slog.Logger

	start sync.Once
	done  chan struct{}

	mu  sync.Mutex
	seq uint64
	fn  func(gesture.Sample)
}

// NewReaderMotion creates a source reading from r once the first
// subscription is made.
func NewReaderMotion(r io.Reader, logger *slog.Logger) *ReaderMotion {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReaderMotion{
		r:      r,
		logger: logger.With("component", "platform.motion"),
		done:   make(chan struct{}),
	}
}

// Subscribe replaces the current subscriber with fn. The returned function
// removes fn without waiting for an in-flight delivery.
func (m *ReaderMotion) Subscribe(fn func(gesture.Sample)) (func(), error) {
	select {
	case <-m.done:
		return nil, fmt.Errorf("%w: input stream ended", gesture.ErrSensorUnavailable)
	default:
	}

	m.mu.Lock()
	m.seq++
	id := m.seq
	m.fn = fn
	m.mu.Unlock()

	m.start.Do(func() { go m.read() })

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.seq == id {
			m.fn = nil
		}
	}, nil
}

// Done is closed when the input stream is exhausted.
func (m *ReaderMotion) Done() <-chan struct{} {
	return m.done
}

func (m *ReaderMotion) read() {
	defer close(m.done)

	scanner := bufio.NewScanner(m.r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var s gesture.Sample
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			m.logger.Warn("skipping malformed sample", "line", line, "error", err)
			continue
		}

		m.mu.Lock()
		fn := m.fn
		m.mu.Unlock()
		if fn != nil {
			fn(s)
		}
	}
	if err := scanner.Err(); err != nil {
		m.logger.Warn("motion stream failed", "error", err)
	}
}
