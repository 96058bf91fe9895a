package oop

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemory is a map-backed OOPRepository used by tests.
type InMemory struct {
	mu   sync.RWMutex
	oops map[string]OOP
}

func NewInMemory() *InMemory {
	return &InMemory{oops: make(map[string]OOP)}
}

func (m *InMemory) Create(ctx context.Context, oop *OOP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oop.ID.IsZero() {
		oop.ID = primitive.NewObjectID()
	}
	now := time.Now()
	oop.CreatedAt = now
	oop.UpdatedAt = now
	m.oops[oop.ID.Hex()] = *oop
	return nil
}

func (m *InMemory) GetByID(ctx context.Context, id string) (*OOP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.oops[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := o
	return &out, nil
}

func (m *InMemory) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*OOP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.oops {
		if o.ApplicationID == applicationID {
			out := o
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *InMemory) List(ctx context.Context, status OOPStatus) ([]OOP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var oops []OOP
	for _, o := range m.oops {
		if status != "" && o.Status != status {
			continue
		}
		oops = append(oops, o)
	}
	return oops, nil
}

func (m *InMemory) Update(ctx context.Context, oop *OOP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.oops[oop.ID.Hex()]; !ok {
		return ErrNotFound
	}
	oop.UpdatedAt = time.Now()
	m.oops[oop.ID.Hex()] = *oop
	return nil
}

func (m *InMemory) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.oops[id.Hex()]; !ok {
		return ErrNotFound
	}
	delete(m.oops, id.Hex())
	return nil
}
