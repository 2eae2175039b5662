package event

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Handler receives published events.
type Handler func(Event)

// subscription binds a pattern to a handler.
type subscription struct {
	id      int
	pattern Topic
	fn      Handler
	once    bool
}

// Bus delivers events to pattern subscriptions synchronously, in
// subscription order. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int

	published atomic.Uint64
	delivered atomic.Uint64
	panics    atomic.Uint64
}

// Stats reports bus activity counters.
type Stats struct {
	// EventsPublished counts accepted Publish calls.
	EventsPublished uint64

	// EventsDelivered counts successful handler invocations.
	EventsDelivered uint64

	// HandlerPanics counts recovered handler panics.
	HandlerPanics uint64

	// ActiveSubscribers is the current subscription count.
	ActiveSubscribers int
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
	}
}

// Subscribe registers a handler for topics matching the pattern. The
// returned function removes the subscription and is safe to call more
// than once.
func (b *Bus) Subscribe(pattern Topic, fn Handler) (func(), error) {
	return b.subscribe(pattern, fn, false)
}

// SubscribeOnce registers a handler that is removed after its first
// delivery.
func (b *Bus) SubscribeOnce(pattern Topic, fn Handler) (func(), error) {
	return b.subscribe(pattern, fn, true)
}

func (b *Bus) subscribe(pattern Topic, fn Handler, once bool) (func(), error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = &subscription{id: id, pattern: pattern, fn: fn, once: once}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}, nil
}

// Publish delivers the event to every matching subscription. Handlers
// run inline on the caller; a panicking handler is recovered and later
// handlers still run.
func (b *Bus) Publish(e Event) error {
	if !e.Topic.IsValid() {
		return ErrInvalidTopic
	}

	b.mu.Lock()
	matched := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if Match(sub.pattern, e.Topic) {
			matched = append(matched, sub)
		}
	}
	// Map order is random; deliver in subscription order.
	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })
	for _, sub := range matched {
		if sub.once {
			delete(b.subs, sub.id)
		}
	}
	b.mu.Unlock()

	b.published.Add(1)
	for _, sub := range matched {
		b.deliver(sub.fn, e)
	}
	return nil
}

// deliver invokes one handler, recovering panics.
func (b *Bus) deliver(fn Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
		}
	}()
	fn(e)
	b.delivered.Add(1)
}

// Stats returns current bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	active := len(b.subs)
	b.mu.Unlock()

	return Stats{
		EventsPublished:   b.published.Load(),
		EventsDelivered:   b.delivered.Load(),
		HandlerPanics:     b.panics.Load(),
		ActiveSubscribers: active,
	}
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[int]*subscription)
}
