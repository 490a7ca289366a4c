package media

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. Useful for tests and single-run setups.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]*Record)}
}

func (ms *MemoryStore) Create(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.nextID++
	rec.ID = ms.nextID
	ms.records[rec.ID] = rec.Clone()

	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, id int64) (*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	rec, ok := ms.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	return rec.Clone(), nil
}

func (ms *MemoryStore) Pending(ctx context.Context) ([]*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]*Record, 0)
	for _, rec := range ms.records {
		if rec.IsPending() {
			out = append(out, rec.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ms *MemoryStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.records[rec.ID]; !ok {
		return ErrNotFound
	}

	ms.records[rec.ID] = rec.Clone()
	return nil
}

// Put inserts or replaces a record with its ID preserved.
func (ms *MemoryStore) Put(rec *Record) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if rec.ID > ms.nextID {
		ms.nextID = rec.ID
	}
	ms.records[rec.ID] = rec.Clone()
}

func (ms *MemoryStore) Close() error {
	return nil
}
