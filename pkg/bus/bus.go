// Package bus implements the in-process broadcast channel that fans produced
// signals out to streaming subscribers. It is constructed explicitly and
// passed by reference; there is no package-level singleton.
package bus

import "sync"

// Bus fans published events out to all current subscribers. Publishing never
// blocks: a subscriber with a full buffer misses the event, and events
// published while nobody listens are gone. No replay is provided.
type Bus struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[int]chan interface{}
	dropped func()
	closed  bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithDropCallback installs a callback invoked once per dropped event per
// subscriber, used for metrics.
func WithDropCallback(fn func()) Option {
	return func(b *Bus) { b.dropped = fn }
}

func New(opts ...Option) *Bus {
	b := &Bus{subs: make(map[int]chan interface{})}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its channel together with
// a cancel func. The cancel func is idempotent and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan interface{}, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan interface{}, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers v to every subscriber that can take it immediately.
func (b *Bus) Publish(v interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			if b.dropped != nil {
				b.dropped()
			}
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops all subscribers and closes their channels. Publish after Close
// is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
