// internal/service/event_bus.go
package service

import (
	"sync"

	"go.uber.org/zap"

	"serial-terminal/internal/session"
)

// EventBus fans session notifications out to presentation-layer
// subscribers. Delivery preserves order per subscriber; a slow subscriber
// loses events rather than blocking the publisher.
type EventBus struct {
	subscribers []chan session.Notification
	events      chan session.Notification
	mutex       sync.RWMutex
	logger      *zap.Logger
	closeOnce   sync.Once
}

// NewEventBus creates a new event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan session.Notification, 1024),
		logger: logger,
	}
}

// Start distributes events until the bus is closed.
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distribute(event)
	}
}

// Publish enqueues an event for distribution without blocking.
func (eb *EventBus) Publish(event session.Notification) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("kind", string(event.Kind)),
		)
	}
}

// Subscribe returns a channel receiving every published event.
func (eb *EventBus) Subscribe() <-chan session.Notification {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan session.Notification, 256)
	eb.subscribers = append(eb.subscribers, subscriber)
	return subscriber
}

// Close stops distribution. Pending events are dropped.
func (eb *EventBus) Close() {
	eb.closeOnce.Do(func() {
		close(eb.events)
	})
}

func (eb *EventBus) distribute(event session.Notification) {
	eb.mutex.RLock()
	subscribers := eb.subscribers
	eb.mutex.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip.
		}
	}
}
