package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultChannelTimeout bounds each channel delivery so one slow channel
// cannot stall the poll loop.
const DefaultChannelTimeout = 10 * time.Second

// Sink fans an event out to every configured channel. Channels are
// independent; a failure on one never prevents delivery on the others.
type Sink struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    *slog.Logger
}

// NewSink creates a sink over an ordered set of channels.
func NewSink(notifiers []Notifier, logger *slog.Logger) *Sink {
	return &Sink{
		notifiers: notifiers,
		timeout:   DefaultChannelTimeout,
		logger:    logger,
	}
}

// Len returns the number of configured channels.
func (s *Sink) Len() int { return len(s.notifiers) }

// Dispatch delivers the event to all channels concurrently and returns one
// error slot per channel, nil for success. Delivery is best-effort; errors
// are also logged per channel.
func (s *Sink) Dispatch(ctx context.Context, event Event) []error {
	errs := make([]error, len(s.notifiers))

	var wg sync.WaitGroup
	for i, n := range s.notifiers {
		wg.Add(1)
		go func(i int, n Notifier) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := n.Send(sendCtx, event); err != nil {
				errs[i] = fmt.Errorf("%s: %w", n.Name(), err)
				s.logger.Error("send alert failed",
					"channel", n.Name(),
					"kind", event.Kind,
					"error", err,
				)
				return
			}
			s.logger.Debug("alert delivered", "channel", n.Name(), "kind", event.Kind)
		}(i, n)
	}
	wg.Wait()

	return errs
}
