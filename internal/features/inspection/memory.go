package inspection

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemory is a map-backed InspectionRepository used by tests.
type InMemory struct {
	mu          sync.RWMutex
	inspections map[string]Inspection
}

func NewInMemory() *InMemory {
	return &InMemory{inspections: make(map[string]Inspection)}
}

func (m *InMemory) Create(ctx context.Context, inspection *Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inspection.ID.IsZero() {
		inspection.ID = primitive.NewObjectID()
	}
	now := time.Now()
	inspection.CreatedAt = now
	inspection.UpdatedAt = now
	m.inspections[inspection.ID.Hex()] = *inspection
	return nil
}

func (m *InMemory) GetByID(ctx context.Context, id string) (*Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.inspections[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := i
	return &out, nil
}

func (m *InMemory) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Inspection
	for _, i := range m.inspections {
		if i.ApplicationID != applicationID {
			continue
		}
		i := i
		if latest == nil || i.CreatedAt.After(latest.CreatedAt) {
			latest = &i
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *InMemory) List(ctx context.Context, status Status) ([]Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var inspections []Inspection
	for _, i := range m.inspections {
		if status != "" && i.Status != status {
			continue
		}
		inspections = append(inspections, i)
	}
	return inspections, nil
}

func (m *InMemory) Update(ctx context.Context, inspection *Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inspections[inspection.ID.Hex()]; !ok {
		return ErrNotFound
	}
	inspection.UpdatedAt = time.Now()
	m.inspections[inspection.ID.Hex()] = *inspection
	return nil
}
