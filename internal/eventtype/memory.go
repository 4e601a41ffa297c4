package eventtype

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory event-type catalog for tests and
// single-process deployments.
type MemoryRepository struct {
	mu    sync.RWMutex
	types map[string]EventType
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{types: make(map[string]EventType)}
}

// Put registers or replaces an event type by value.
func (r *MemoryRepository) Put(et EventType) {
	r.mu.Lock()
	r.types[et.Value] = et
	r.mu.Unlock()
}

func (r *MemoryRepository) Get(ctx context.Context, value string) (*EventType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	et, ok := r.types[value]
	if !ok {
		return nil, ErrNotFound
	}
	return &et, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]EventType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventType, 0, len(r.types))
	for _, et := range r.types {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// MemoryDetailsRepository stores event payloads in memory.
type MemoryDetailsRepository struct {
	mu      sync.RWMutex
	details map[string]EventDetails
}

func NewMemoryDetailsRepository() *MemoryDetailsRepository {
	return &MemoryDetailsRepository{details: make(map[string]EventDetails)}
}

func (r *MemoryDetailsRepository) Put(d EventDetails) {
	r.mu.Lock()
	r.details[d.EventID] = d
	r.mu.Unlock()
}

func (r *MemoryDetailsRepository) Get(ctx context.Context, eventID string) (*EventDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.details[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}
