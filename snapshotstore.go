package souqfeed

import (
	"context"
	"sync"
)

// SnapshotStore persists the most recent accepted cache so a restart can
// show last-known posts before the first live snapshot arrives. Save
// replaces the whole stored list; Load returns it in stored order.
type SnapshotStore interface {
	// Init initializes the store, such as creating buckets or tables.
	Init() error
	// Save replaces the persisted post list with posts, in order.
	Save(ctx context.Context, posts []*Post) error
	// Load returns the persisted post list in stored order. An empty store
	// yields a nil slice.
	Load(ctx context.Context) ([]*Post, error)
	// Clear removes all persisted posts.
	Clear(ctx context.Context) error
	// Close closes the store.
	Close() error
}

// MemorySnapshotStore implements SnapshotStore using in-memory storage.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	posts []*Post
}

// NewMemorySnapshotStore creates a new MemorySnapshotStore.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Init initializes the store.
func (m *MemorySnapshotStore) Init() error {
	return nil
}

// Save replaces the stored post list.
func (m *MemorySnapshotStore) Save(ctx context.Context, posts []*Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]*Post, len(posts))
	copy(stored, posts)
	m.posts = stored
	return nil
}

// Load returns a copy of the stored post list.
func (m *MemorySnapshotStore) Load(ctx context.Context) ([]*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.posts == nil {
		return nil, nil
	}

	posts := make([]*Post, len(m.posts))
	copy(posts, m.posts)
	return posts, nil
}

// Clear removes all stored posts.
func (m *MemorySnapshotStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts = nil
	return nil
}

// Close closes the store.
func (m *MemorySnapshotStore) Close() error {
	return nil
}
