// ABOUTME: Console notifier printing user-visible alert dialogs in color
// ABOUTME: Implements alert.Notifier for the terminal

package platform

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// ConsoleNotifier prints notifications to a writer.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Notify prints title and message.
func (n *ConsoleNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	color.New(color.FgRed, color.Bold).Fprintf(n.out, "%s: ", title)
	color.New(color.FgWhite).Fprintln(n.out, message)
}
