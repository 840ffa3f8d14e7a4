// Package notify fans state snapshots out to subscribers.
package notify

import "sync"

// Hub delivers published values to every subscriber. Slow subscribers do
// not block publishers: a subscriber whose buffer is full only keeps the
// most recent value.
type Hub[T any] struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan T
	closed bool
}

// NewHub returns an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]chan T)}
}

// Subscribe returns a channel of published values and a function that
// unsubscribes. The channel is closed on unsubscribe or Close.
func (h *Hub[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish sends v to every subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// Drop the oldest value to make room.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Close closes every subscriber channel. Later subscriptions receive a
// closed channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
