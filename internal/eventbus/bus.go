package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type Bus struct {
	mutex       sync.RWMutex
	subscribers map[CollabEventType]map[uint64]CollabEventHandler
	allEvents   map[uint64]CollabEventHandler
	counter     uint64
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[CollabEventType]map[uint64]CollabEventHandler),
		allEvents:   make(map[uint64]CollabEventHandler),
	}
}

func (b *Bus) Subscribe(eventType CollabEventType, handler CollabEventHandler) func() {
	if handler == nil {
		return func() {}
	}
	id := atomic.AddUint64(&b.counter, 1)
	b.mutex.Lock()
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[uint64]CollabEventHandler)
	}
	b.subscribers[eventType][id] = handler
	b.mutex.Unlock()
	return func() {
		b.mutex.Lock()
		handlers, ok := b.subscribers[eventType]
		if ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.subscribers, eventType)
			}
		}
		b.mutex.Unlock()
	}
}

// SubscribeAll 订阅全部事件类型（SSE 推流用）
func (b *Bus) SubscribeAll(handler CollabEventHandler) func() {
	if handler == nil {
		return func() {}
	}
	id := atomic.AddUint64(&b.counter, 1)
	b.mutex.Lock()
	b.allEvents[id] = handler
	b.mutex.Unlock()
	return func() {
		b.mutex.Lock()
		delete(b.allEvents, id)
		b.mutex.Unlock()
	}
}

func (b *Bus) Publish(ctx context.Context, event CollabEvent) error {
	b.mutex.RLock()
	handlersMap := b.subscribers[event.Type]
	handlers := make([]CollabEventHandler, 0, len(handlersMap)+len(b.allEvents))
	for _, handler := range handlersMap {
		handlers = append(handlers, handler)
	}
	for _, handler := range b.allEvents {
		handlers = append(handlers, handler)
	}
	b.mutex.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
