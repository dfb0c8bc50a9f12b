// Package analytics delivers storefront events to tracking services.
// Delivery is best effort: a failing sink never affects the caller.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/models"
)

const EventPurchase = "Purchase"

type Sink interface {
	Track(ctx context.Context, event models.Event) error
}

// LogSink records events in the log. It stands in for a tracking pixel
// that is not configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Track(ctx context.Context, event models.Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "analytics event", "event", event.Name, "data", event.Data)
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Track(ctx context.Context, event models.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Track(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async makes Track fire-and-forget. Each event is delivered on its own
// goroutine under a fresh timeout; the caller's context only contributes
// its values, never its cancellation.
type Async struct {
	sink    Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(sink Sink, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Async{sink: sink, timeout: timeout}
}

func (a *Async) Track(ctx context.Context, event models.Event) error {
	ctx = context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		if err := a.sink.Track(ctx, event); err != nil {
			slog.WarnContext(ctx, "analytics delivery failed", "event", event.Name, "error", err)
		}
	}()

	return nil
}

// Close waits for in-flight deliveries.
func (a *Async) Close() {
	a.wg.Wait()
}
