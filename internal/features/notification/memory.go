package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemory is a map-backed NotificationRepository used by tests.
type InMemory struct {
	mu            sync.RWMutex
	notifications []Notification
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Create(ctx context.Context, notification *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	notification.IsRead = false
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *InMemory) GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool, page, limit int64) ([]Notification, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Notification
	for _, n := range m.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *InMemory) GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *InMemory) MarkAsRead(ctx context.Context, id primitive.ObjectID, recipientID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].RecipientID == recipientID {
			now := time.Now()
			m.notifications[i].IsRead = true
			m.notifications[i].ReadAt = &now
		}
	}
	return nil
}

func (m *InMemory) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for i := range m.notifications {
		if m.notifications[i].RecipientID == recipientID && !m.notifications[i].IsRead {
			m.notifications[i].IsRead = true
			m.notifications[i].ReadAt = &now
		}
	}
	return nil
}

// All returns every stored notification, newest last. Test helper.
func (m *InMemory) All() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}
