// Package notify provides change broadcasting with a retained last value.
//
// The notify package implements an observer pattern with one addition over
// a plain callback list: the broadcaster keeps the last published value per
// key, so a late subscriber can synchronously read current state instead of
// waiting for the next publish.
package notify

import (
	"sync"
)

// Observer is called when a value is published.
type Observer[T any] func(key string, value T)

// Subscription represents an active observer subscription.
type Subscription[T any] struct {
	id          uint64
	broadcaster *Broadcaster[T]
}

// Unsubscribe removes this subscription.
func (s *Subscription[T]) Unsubscribe() {
	if s.broadcaster != nil {
		s.broadcaster.unsubscribe(s.id)
	}
}

// delivery is one queued async notification.
type delivery[T any] struct {
	key   string
	value T
}

// Broadcaster fans published values out to observers and retains the last
// value per key.
type Broadcaster[T any] struct {
	mu sync.RWMutex

	// Registered observers
	observers map[uint64]Observer[T]

	// Last published value per key
	last map[string]T

	// Next subscription ID
	nextID uint64

	// Whether to notify synchronously or asynchronously
	async bool

	// Buffer for async notifications
	buffer chan delivery[T]

	// Done channel for shutdown
	done chan struct{}

	// Wait group for async goroutine
	wg sync.WaitGroup

	// Closed flag for idempotent Close
	closed bool
}

// Option configures a Broadcaster.
type Option[T any] func(*Broadcaster[T])

// WithAsync enables asynchronous notification delivery.
func WithAsync[T any](bufferSize int) Option[T] {
	return func(b *Broadcaster[T]) {
		if bufferSize > 0 {
			b.async = true
			b.buffer = make(chan delivery[T], bufferSize)
		}
	}
}

// New creates a new Broadcaster.
func New[T any](opts ...Option[T]) *Broadcaster[T] {
	b := &Broadcaster[T]{
		observers: make(map[uint64]Observer[T]),
		last:      make(map[string]T),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.async {
		b.wg.Add(1)
		go b.processAsync()
	}

	return b
}

// Subscribe registers an observer for all published values.
func (b *Broadcaster[T]) Subscribe(observer Observer[T]) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.observers[id] = observer

	return &Subscription[T]{id: id, broadcaster: b}
}

// Publish retains value as the last known state for key and notifies all
// observers.
func (b *Broadcaster[T]) Publish(key string, value T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.last[key] = value
	observers := make([]Observer[T], 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.Unlock()

	if b.async {
		select {
		case b.buffer <- delivery[T]{key: key, value: value}:
		case <-b.done:
		}
		return
	}

	for _, o := range observers {
		o(key, value)
	}
}

// Last returns the most recently published value for key.
func (b *Broadcaster[T]) Last(key string) (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.last[key]
	return v, ok
}

// Forget drops the retained value for key.
func (b *Broadcaster[T]) Forget(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.last, key)
}

// Keys returns the keys with retained values.
func (b *Broadcaster[T]) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.last))
	for k := range b.last {
		keys = append(keys, k)
	}
	return keys
}

// Close stops async delivery. Close is idempotent.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	if b.async {
		b.wg.Wait()
	}
}

// unsubscribe removes an observer by subscription ID.
func (b *Broadcaster[T]) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.observers, id)
}

// processAsync delivers buffered notifications until shutdown.
func (b *Broadcaster[T]) processAsync() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			return
		case d := <-b.buffer:
			b.mu.RLock()
			observers := make([]Observer[T], 0, len(b.observers))
			for _, o := range b.observers {
				observers = append(observers, o)
			}
			b.mu.RUnlock()

			for _, o := range observers {
				o(d.key, d.value)
			}
		}
	}
}
