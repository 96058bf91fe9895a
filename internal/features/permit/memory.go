package permit

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemory is a map-backed PermitRepository used by tests.
type InMemory struct {
	mu      sync.RWMutex
	permits map[string]Permit
}

func NewInMemoryRepository() *InMemory {
	return &InMemory{permits: make(map[string]Permit)}
}

func (m *InMemory) Create(ctx context.Context, permit *Permit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if permit.ID.IsZero() {
		permit.ID = primitive.NewObjectID()
	}
	now := time.Now()
	permit.CreatedAt = now
	permit.LastUpdated = now
	m.permits[permit.ID.Hex()] = *permit
	return nil
}

func (m *InMemory) GetByID(ctx context.Context, id string) (*Permit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.permits[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	out.History = append([]HistoryEntry(nil), p.History...)
	return &out, nil
}

func (m *InMemory) List(ctx context.Context, filter ListFilter) ([]Permit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var permits []Permit
	for _, p := range m.permits {
		if filter.ApplicantID != "" && p.ApplicantID.Hex() != filter.ApplicantID {
			continue
		}
		if filter.ApplicationType != "" && p.ApplicationType != filter.ApplicationType {
			continue
		}
		if filter.Stage != "" && p.CurrentStage != filter.Stage {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		permits = append(permits, p)
	}
	return permits, nil
}

func (m *InMemory) ApplyTransition(ctx context.Context, id primitive.ObjectID, update TransitionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.permits[id.Hex()]
	if !ok {
		return ErrNotFound
	}

	p.CurrentStage = update.Stage
	p.Status = update.Status
	p.Gates = update.Gates
	p.LastUpdated = time.Now()
	if update.DateOfSubmission != nil {
		p.DateOfSubmission = update.DateOfSubmission
	}
	p.History = append(p.History, update.Entry)
	m.permits[id.Hex()] = p
	return nil
}
