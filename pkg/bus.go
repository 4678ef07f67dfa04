package pkg

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt/events"
)

// Bus is an in-process Publisher and Subscriber. Handlers run synchronously
// on the publishing goroutine, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]busHandler
}

type busHandler struct {
	ctx context.Context
	fn  events.HandlerFunc
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]busHandler)}
}

func (b *Bus) Publish(ctx context.Context, topic string, msg []byte) error {
	b.mu.RLock()
	hs := append([]busHandler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if h.ctx.Err() != nil {
			continue
		}
		if err := h.fn(h.ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], busHandler{ctx: ctx, fn: handler})
	return nil
}

func (b *Bus) Close() error {
	return nil
}
