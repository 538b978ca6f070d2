package docstore

import (
	"context"
	"sync"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change announces a successful write to one document.
type Change struct {
	Collection string     `json:"collection"`
	ID         string     `json:"id"`
	Kind       ChangeKind `json:"kind"`
}

// Broker carries the change feed between writers and subscriptions.
type Broker interface {
	Publish(ctx context.Context, change Change) error
	// Listen registers fn for changes to collection. The listener is active
	// when Listen returns. fn must not block.
	Listen(ctx context.Context, collection string, fn func(Change)) (stop func(), err error)
	Close() error
}

// MemoryBroker delivers changes within one process.
type MemoryBroker struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]func(Change)
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{listeners: make(map[string]map[uint64]func(Change))}
}

func (b *MemoryBroker) Publish(_ context.Context, change Change) error {
	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.listeners[change.Collection]))
	for _, fn := range b.listeners[change.Collection] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
	return nil
}

func (b *MemoryBroker) Listen(_ context.Context, collection string, fn func(Change)) (func(), error) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.listeners[collection] == nil {
		b.listeners[collection] = make(map[uint64]func(Change))
	}
	b.listeners[collection][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners[collection], id)
			if len(b.listeners[collection]) == 0 {
				delete(b.listeners, collection)
			}
			b.mu.Unlock()
		})
	}, nil
}

// ListenerCount reports active listeners for collection.
func (b *MemoryBroker) ListenerCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[collection])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	b.listeners = make(map[string]map[uint64]func(Change))
	b.mu.Unlock()
	return nil
}
