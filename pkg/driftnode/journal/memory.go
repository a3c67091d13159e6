package journal

import (
	"sync"
)

// MemoryStore is an in-memory journal for testing.
// Records are lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record // nodeID -> records in sequence order
	nextSeq int64
	closed  bool
}

// NewMemoryStore creates a new in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]Record),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.nextSeq++
	rec.Seq = m.nextSeq
	m.records[rec.NodeID] = append(m.records[rec.NodeID], rec)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(nodeID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	recs := m.records[nodeID]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

// Tail implements Store.
func (m *MemoryStore) Tail(nodeID string, n int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	if n <= 0 {
		return []Record{}, nil
	}

	recs := m.records[nodeID]
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

// DeleteNode implements Store.
func (m *MemoryStore) DeleteNode(nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.records, nodeID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// Len returns the total number of records across all nodes.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, recs := range m.records {
		count += len(recs)
	}
	return count
}
