// Package broadcast fans a stream of values out to any number of subscribers
// that only care about the most recent one.
package broadcast

import (
	"context"
	"sync"
)

// Hub delivers published values to subscribers. Each subscriber channel holds
// at most one pending value; a slow reader sees the newest value and misses
// the ones published in between. The zero value is ready to use.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[chan T]struct{}
	last   T
	has    bool
	closed bool
	done   chan struct{}
}

// Publish records v as the latest value and hands it to every subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last = v
	h.has = true
	for ch := range h.subs {
		offer(ch, v)
	}
}

// Latest returns the last published value, if any.
func (h *Hub[T]) Latest() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.has
}

// Subscribe returns a channel that first receives the latest value (when one
// exists) and then every later one. The channel is closed when ctx is done or
// the hub is closed.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	if h.subs == nil {
		h.subs = make(map[chan T]struct{})
		h.done = make(chan struct{})
	}
	h.subs[ch] = struct{}{}
	if h.has {
		ch <- h.last
	}
	done := h.done
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Close closes every subscriber channel. Later publishes are dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.done != nil {
		close(h.done)
	}
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// offer replaces any unread value in ch with v. Callers hold h.mu, so nothing
// else sends on ch concurrently.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
