package broadcast

import (
	"context"
	"sync"
)

// MemoryHub is an in-process transport. Publish delivers synchronously to every
// subscriber of the channel and event, on the publisher's goroutine.
type MemoryHub struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	closed bool
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[string]map[int]Handler)}
}

func (h *MemoryHub) Name() string { return "memory" }

func (h *MemoryHub) Subscribe(ctx context.Context, channelID, event string, handler Handler) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	key := subscription{channel: channelID, event: event}.key()
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]Handler)
	}
	id := h.nextID
	h.nextID++
	h.subs[key][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[key], id)
		})
	}, nil
}

func (h *MemoryHub) Publish(ctx context.Context, channelID, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	key := subscription{channel: channelID, event: event}.key()
	handlers := make([]Handler, 0, len(h.subs[key]))
	for _, handler := range h.subs[key] {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(append([]byte(nil), payload...))
	}
	return nil
}

// Subscribers returns the number of handlers on a channel and event.
func (h *MemoryHub) Subscribers(channelID, event string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[subscription{channel: channelID, event: event}.key()])
}

func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[string]map[int]Handler)
	return nil
}
