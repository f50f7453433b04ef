package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Dispatcher delivers a single notification to the user.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry Entry) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, entry Entry) error

// Dispatch calls fn.
func (fn DispatcherFunc) Dispatch(ctx context.Context, entry Entry) error {
	return fn(ctx, entry)
}

// Multi dispatches to every dispatcher in order and returns the first
// error.
func Multi(dispatchers ...Dispatcher) Dispatcher {
	return DispatcherFunc(func(ctx context.Context, entry Entry) error {
		for _, d := range dispatchers {
			if err := d.Dispatch(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	timeStyle  = lipgloss.NewStyle().Faint(true)
)

// ConsoleDispatcher writes one line per notification to W.
type ConsoleDispatcher struct {
	W io.Writer

	// Plain disables styling.
	Plain bool

	mu sync.Mutex
}

// Dispatch implements Dispatcher.
func (d *ConsoleDispatcher) Dispatch(ctx context.Context, entry Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	title := entry.Title
	stamp := entry.FireAt.Local().Format(time.Kitchen)
	if !d.Plain {
		title = titleStyle.Render(title)
		stamp = timeStyle.Render(stamp)
	}
	_, err := fmt.Fprintf(d.W, "%s %s %s\n", stamp, title, entry.Body)
	return err
}
