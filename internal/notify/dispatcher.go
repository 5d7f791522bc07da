package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher routes events to registered senders.
type Dispatcher struct {
	senders []Sender
	mu      sync.RWMutex
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make([]Sender, 0)}
}

// Register adds a sender to the dispatcher.
func (d *Dispatcher) Register(sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders = append(d.senders, sender)
}

// Dispatch sends an event to all registered senders.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) {
	d.mu.RLock()
	senders := make([]Sender, len(d.senders))
	copy(senders, d.senders)
	d.mu.RUnlock()

	for _, sender := range senders {
		d.sendWithRecover(ctx, sender, event)
	}
}

// sendWithRecover sends an event and recovers from panics.
func (d *Dispatcher) sendWithRecover(ctx context.Context, sender Sender, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("notify: panic in sender", slog.String("sender", sender.Name()), slog.Any("panic", r))
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sender.Send(sendCtx, event); err != nil {
		slog.Warn("notify: send failed", slog.String("sender", sender.Name()), slog.Any("error", err))
	}
}

// ConsoleSender writes events to a writer, one line per event.
type ConsoleSender struct {
	Out io.Writer
}

func (s *ConsoleSender) Name() string { return "console" }

func (s *ConsoleSender) Send(_ context.Context, event *Event) error {
	prefix := "ok"
	if !event.Success {
		prefix = "error"
	}

	line := fmt.Sprintf("[%s] %s", prefix, event.Message)
	if event.Error != "" {
		line += ": " + event.Error
	}

	_, err := fmt.Fprintln(s.Out, line)

	return err
}
