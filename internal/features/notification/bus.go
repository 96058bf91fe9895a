package notification

import "sync"

// EventBus fans persisted notifications out to live subscribers. Delivery is
// at-least-once relative to the store: a notification is always persisted
// before it is published, and publish failures never roll the write back.
type EventBus interface {
	// Publish delivers the notification to every subscriber registered for
	// its recipient.
	Publish(n Notification) error
	// Subscribe registers a live channel for a recipient id and returns an
	// unsubscribe func. The channel is never closed by the bus.
	Subscribe(recipientID string, ch chan<- Notification) (unsubscribe func())
}

// MemoryBus is the in-process EventBus implementation. The websocket feed
// subscribes here; tests swap in their own bus.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]chan<- Notification
	nextID      int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subscribers: make(map[string]map[int]chan<- Notification),
	}
}

func (b *MemoryBus) Publish(n Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[n.RecipientID.Hex()] {
		select {
		case ch <- n:
		default:
			// Slow subscriber: drop rather than block the workflow.
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(recipientID string, ch chan<- Notification) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.subscribers[recipientID] == nil {
		b.subscribers[recipientID] = make(map[int]chan<- Notification)
	}
	b.subscribers[recipientID][id] = ch

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers[recipientID], id)
		if len(b.subscribers[recipientID]) == 0 {
			delete(b.subscribers, recipientID)
		}
	}
}
