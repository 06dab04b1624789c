package progress

import (
	"context"
	"maps"
	"sync"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// MemoryStore is an in-process Store, used by the CLI for one-off runs
// and in tests
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]int
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]int)}
}

func (m *MemoryStore) Get(_ context.Context, learnerID string) (domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	completed, ok := m.records[learnerID]
	if !ok {
		return domain.ProgressRecord{}, domain.ErrProgressNotFound
	}
	record := domain.NewProgressRecord(learnerID)
	record.Completed = maps.Clone(completed)
	return record, nil
}

func (m *MemoryStore) Advance(_ context.Context, learnerID, lessonKey string, count int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	completed, ok := m.records[learnerID]
	if !ok {
		completed = make(map[string]int)
		m.records[learnerID] = completed
	}
	if count <= completed[lessonKey] {
		return false, nil
	}
	completed[lessonKey] = count
	return true, nil
}

func (m *MemoryStore) Reset(_ context.Context, learnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, learnerID)
	return nil
}
