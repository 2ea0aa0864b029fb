package dataset

import (
	"context"
	"slices"
	"sync"

	"github.com/TobiSchelling/bizwire/internal/record"
)

// MemoryStore is an in-memory Repository. The zero value behaves like a
// dataset that does not exist yet.
type MemoryStore struct {
	mu      sync.Mutex
	records []record.Record
	exists  bool
	saves   int

	// LoadErr and SaveErr, when set, are returned by Load and Save.
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates a store that already holds records.
func NewMemoryStore(records ...record.Record) *MemoryStore {
	return &MemoryStore{records: slices.Clone(records), exists: true}
}

func (m *MemoryStore) Location() string {
	return "memory"
}

func (m *MemoryStore) Load(ctx context.Context) ([]record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if !m.exists {
		return nil, ErrNotFound
	}
	return slices.Clone(m.records), nil
}

func (m *MemoryStore) Save(ctx context.Context, records []record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.records = slices.Clone(records)
	m.exists = true
	m.saves++
	return nil
}

// Records returns a copy of the stored records.
func (m *MemoryStore) Records() []record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
