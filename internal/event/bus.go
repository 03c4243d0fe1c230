package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Subscriber receives published events. Subscribers run concurrently;
// they must not assume any other listener has completed.
type Subscriber func(Event)

type entry struct {
	id uint64
	fn Subscriber
}

// Bus fans events out to subscribers. Delivery order across
// subscribers is not guaranteed.
type Bus struct {
	mu     sync.RWMutex
	pubsub *gochannel.GoChannel
	typed  map[Type][]entry
	all    []entry
	nextID uint64
	closed bool
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		typed: make(map[Type][]entry),
	}
}

var (
	defaultMu  sync.RWMutex
	defaultBus = NewBus()
)

// Default returns the process-wide bus.
func Default() *Bus {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultBus
}

// Reset replaces the process-wide bus, dropping all subscribers.
// Intended for tests.
func Reset() {
	defaultMu.Lock()
	old := defaultBus
	defaultBus = NewBus()
	defaultMu.Unlock()
	old.Close()
}

// Subscribe registers fn for one event type and returns an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.typed[t] = append(b.typed[t], entry{id: id, fn: fn})
	return func() { b.remove(t, id) }
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.all = append(b.all, entry{id: id, fn: fn})
	return func() { b.remove("", id) }
}

func (b *Bus) remove(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t == "" {
		for i, e := range b.all {
			if e.id == id {
				b.all = append(b.all[:i], b.all[i+1:]...)
				return
			}
		}
		return
	}
	subs := b.typed[t]
	for i, e := range subs {
		if e.id == id {
			b.typed[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) collect(t Type) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	subs := make([]Subscriber, 0, len(b.typed[t])+len(b.all))
	for _, e := range b.typed[t] {
		subs = append(subs, e.fn)
	}
	for _, e := range b.all {
		subs = append(subs, e.fn)
	}
	return subs
}

// Publish delivers ev to subscribers asynchronously, each on its own
// goroutine so a slow listener cannot block the publisher.
func (b *Bus) Publish(ev Event) {
	for _, fn := range b.collect(ev.Type) {
		go fn(ev)
	}
}

// PublishSync delivers ev to all subscribers before returning.
func (b *Bus) PublishSync(ev Event) {
	for _, fn := range b.collect(ev.Type) {
		fn(ev)
	}
}

// Close shuts the bus down; further publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.typed = make(map[Type][]entry)
	b.all = nil
	b.mu.Unlock()
	return b.pubsub.Close()
}

// PubSub exposes the underlying watermill channel for callers that
// bridge events onto a router or a distributed backend.
func (b *Bus) PubSub() *gochannel.GoChannel { return b.pubsub }

// Publish delivers ev on the process-wide bus.
func Publish(ev Event) { Default().Publish(ev) }

// PublishSync delivers ev synchronously on the process-wide bus.
func PublishSync(ev Event) { Default().PublishSync(ev) }

// Subscribe registers fn on the process-wide bus.
func Subscribe(t Type, fn Subscriber) func() { return Default().Subscribe(t, fn) }

// SubscribeAll registers fn for every event on the process-wide bus.
func SubscribeAll(fn Subscriber) func() { return Default().SubscribeAll(fn) }
