// Package events provides the in-process pub/sub broker that fans order
// lifecycle events out to kitchen display streams.
//
// The broker is constructed once in main and injected into both the order
// service (publisher) and the SSE handler (subscriber); there is no package
// level singleton. Delivery is at-least-once best-effort: an event published
// with no subscribers is dropped, and a subscriber whose buffer is full
// misses the event. Clients refetch full order state on reconnect.
package events

import (
	"sync"
	"time"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderUpdated       Type = "order.updated"
	TypeOrderStatusChanged Type = "order.status.changed"
)

// Event is the wire shape forwarded to stream clients. Clients treat it as
// a change notification and re-fetch full order state.
type Event struct {
	Type        Type               `json:"type"`
	OrderID     string             `json:"orderId"`
	OrderNumber int                `json:"orderNumber"`
	Status      models.OrderStatus `json:"status,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Subscriber is a channel that receives events. It is closed by
// Unsubscribe.
type Subscriber chan Event

// Broker manages subscriptions and distributes published events in publish
// order.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]map[Type]bool
	eventCh     chan Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]map[Type]bool),
		eventCh:     make(chan Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop shuts the broker down. Pending events are dropped.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Done is closed when the broker stops. Long-lived consumers select on it
// so shutdown does not wait out their idle timeouts.
func (b *Broker) Done() <-chan struct{} {
	return b.stopCh
}

// Subscribe registers interest in the given event types and returns the
// delivery channel. With no types given the subscriber receives everything.
func (b *Broker) Subscribe(types ...Type) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	var filter map[Type]bool
	if len(types) > 0 {
		filter = make(map[Type]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}
	b.subscribers[sub] = filter
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// once per subscriber from any disconnect path.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues an event for distribution. Non-blocking with respect to
// subscribers; blocks only if the broker's own buffer is full.
func (b *Broker) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub, filter := range b.subscribers {
		if filter != nil && !filter[event.Type] {
			continue
		}
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
