package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemory is a map-backed AccountRepository used by tests and local tooling.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[string]Account)}
}

func (m *InMemory) Create(ctx context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.UpdatedAt = account.CreatedAt
	m.accounts[account.ID.Hex()] = *account
	return nil
}

func (m *InMemory) FindByID(ctx context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &acc, nil
}

func (m *InMemory) FindByUsername(ctx context.Context, username string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, acc := range m.accounts {
		if acc.Username == username {
			a := acc
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *InMemory) FindByRole(ctx context.Context, role Role) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var holders []Account
	for _, acc := range m.accounts {
		if acc.HasRole(role) {
			holders = append(holders, acc)
		}
	}
	sort.Slice(holders, func(i, j int) bool {
		return holders[i].CreatedAt.Before(holders[j].CreatedAt)
	})
	return holders, nil
}

func (m *InMemory) List(ctx context.Context, userType UserType) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var accounts []Account
	for _, acc := range m.accounts {
		if userType == "" || acc.UserType == userType {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}
