package board

import (
	"context"
	"errors"
)

// ErrStreamClosed is returned by Evaluate when the streaming consumer went
// away mid-run. The run's partial results are discarded, not persisted.
var ErrStreamClosed = errors.New("stream consumer disconnected")

// Reporter carries one run's progress events to a single consumer over a
// bounded channel. The engine is the only writer and closes the channel
// after the summary frame; the consumer's context going away is how
// disconnection is detected on the next write.
type Reporter struct {
	ch   chan Event
	done <-chan struct{}
}

func NewReporter(ctx context.Context, buffer int) *Reporter {
	if buffer <= 0 {
		buffer = 16
	}
	return &Reporter{
		ch:   make(chan Event, buffer),
		done: ctx.Done(),
	}
}

// Events is the consumer side of the channel. It is closed after the
// summary event, or without a summary when the run aborted.
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

func (r *Reporter) emit(ev Event) error {
	select {
	case r.ch <- ev:
		return nil
	case <-r.done:
		return ErrStreamClosed
	}
}

func (r *Reporter) close() {
	close(r.ch)
}
