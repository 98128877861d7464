package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrPayloadMismatch  = errors.New("event payload has unexpected type")
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// On adapts a handler that expects payload type P. An event carrying any
// other payload fails with ErrPayloadMismatch instead of reaching fn.
func On[P any](fn func(ctx context.Context, event Event, payload P) error) EventHandler {
	return func(ctx context.Context, event Event) error {
		payload, ok := event.Payload.(P)
		if !ok {
			return fmt.Errorf("%w: %s carries %T", ErrPayloadMismatch, event.Type, event.Payload)
		}
		return fn(ctx, event, payload)
	}
}

// Dispatcher routes auth events to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(handler EventHandler, types ...EventType)
}

// inMemoryDispatcher delivers synchronously on the publisher's goroutine.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	now       func() time.Time
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		now:       time.Now,
	}
}

// Publish stamps the event and invokes its handlers in subscription order.
// Every handler runs even if an earlier one fails; the failures are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if !event.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}

	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for each of types. Unknown types panic, since
// they can only come from a wiring mistake.
func (d *inMemoryDispatcher) Subscribe(handler EventHandler, types ...EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range types {
		if !t.Known() {
			panic(fmt.Sprintf("events: subscribe to unknown type %q", t))
		}
		d.listeners[t] = append(d.listeners[t], handler)
	}
}
