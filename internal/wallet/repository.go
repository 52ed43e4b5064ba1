package wallet

import (
	"context"
	"sync"
)

// Repository persists the whole card collection as one unit.
// Save replaces whatever was stored before (last writer wins).
type Repository interface {
	Load(ctx context.Context) ([]Card, error)
	Save(ctx context.Context, cards []Card) error
}

// MemoryRepository keeps the encoded collection in memory. It round-trips
// through Encode/Decode so it behaves like a real store.
type MemoryRepository struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryRepository returns a repository seeded with an optional raw blob.
func NewMemoryRepository(seed []byte) *MemoryRepository {
	return &MemoryRepository{data: seed}
}

// Load implements Repository.
func (m *MemoryRepository) Load(_ context.Context) ([]Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Decode(m.data)
}

// Save implements Repository.
func (m *MemoryRepository) Save(_ context.Context, cards []Card) error {
	data, err := Encode(cards)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Bytes returns a copy of the stored blob.
func (m *MemoryRepository) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Saves returns how many times Save succeeded.
func (m *MemoryRepository) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
