package realtime

import "sync"

// eventDispatcher fans inbound frames out to subscribers. Handlers are
// keyed by a monotonically increasing handle so individual subscriptions
// can be removed without disturbing their siblings.
type eventDispatcher struct {
	mu       sync.RWMutex
	next     Subscription
	handlers map[string]map[Subscription]Handler
}

func newEventDispatcher() *eventDispatcher {
	return &eventDispatcher{
		handlers: make(map[string]map[Subscription]Handler),
	}
}

func (d *eventDispatcher) subscribe(event string, h Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	if d.handlers[event] == nil {
		d.handlers[event] = make(map[Subscription]Handler)
	}
	d.handlers[event][d.next] = h

	return d.next
}

func (d *eventDispatcher) unsubscribe(event string, sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.handlers[event], sub)
}

func (d *eventDispatcher) dispatch(env Envelope) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.handlers[env.Event]))
	for _, h := range d.handlers[env.Event] {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(env.Event, env.Payload)
	}
}
