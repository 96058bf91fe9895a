package certificate

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemory is a map-backed CertificateRepository used by tests.
type InMemory struct {
	mu           sync.RWMutex
	certificates map[string]Certificate
}

func NewInMemory() *InMemory {
	return &InMemory{certificates: make(map[string]Certificate)}
}

func (m *InMemory) Create(ctx context.Context, certificate *Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if certificate.ID.IsZero() {
		certificate.ID = primitive.NewObjectID()
	}
	now := time.Now()
	certificate.CreatedAt = now
	certificate.UpdatedAt = now
	m.certificates[certificate.ID.Hex()] = *certificate
	return nil
}

func (m *InMemory) GetByID(ctx context.Context, id string) (*Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := c
	return &out, nil
}

func (m *InMemory) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.certificates {
		if c.ApplicationID == applicationID {
			out := c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *InMemory) List(ctx context.Context, status Status) ([]Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var certificates []Certificate
	for _, c := range m.certificates {
		if status != "" && c.Status != status {
			continue
		}
		certificates = append(certificates, c)
	}
	return certificates, nil
}

func (m *InMemory) ListActive(ctx context.Context) ([]Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var certificates []Certificate
	for _, c := range m.certificates {
		if c.Status == StatusExpired {
			continue
		}
		certificates = append(certificates, c)
	}
	return certificates, nil
}

func (m *InMemory) Update(ctx context.Context, certificate *Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.certificates[certificate.ID.Hex()]; !ok {
		return ErrNotFound
	}
	certificate.UpdatedAt = time.Now()
	m.certificates[certificate.ID.Hex()] = *certificate
	return nil
}

func (m *InMemory) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.certificates[id.Hex()]; !ok {
		return ErrNotFound
	}
	delete(m.certificates, id.Hex())
	return nil
}
