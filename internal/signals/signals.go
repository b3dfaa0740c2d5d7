// Package signals is the in-process domain-event dispatcher. The action
// services publish comment lifecycle events; delivery concerns such as
// notification mail subscribe to them. Handlers run synchronously and
// are isolated: a failing subscriber cannot affect the committed
// mutation.
package signals

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"portal-comments/internal/dictize"
)

type Event string

const (
	Created  Event = "created"
	Approved Event = "approved"
	Updated  Event = "updated"
	Deleted  Event = "deleted"
)

type Payload struct {
	ThreadID uuid.UUID
	Comment  *dictize.Comment

	// Extras carries per-event data, e.g. the subject/body of a deletion
	// notice.
	Extras map[string]string
}

type Handler func(ctx context.Context, payload Payload)

type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Event][]Handler)}
}

func (d *Dispatcher) Subscribe(event Event, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

func (d *Dispatcher) Send(ctx context.Context, event Event, payload Payload) {
	d.mu.RLock()
	handlers := d.handlers[event]
	d.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("signals: %s handler panicked: %v", event, r)
				}
			}()
			handler(ctx, payload)
		}()
	}
}
