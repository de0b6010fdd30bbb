package souqfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// CacheState tells a consumer whether the local cache has confirmed remote
// state yet. CacheLoading means no snapshot has arrived; CacheEmpty means
// the store confirmed there are no posts.
type CacheState string

const (
	CacheLoading CacheState = "loading"
	CacheEmpty   CacheState = "empty"
	CacheReady   CacheState = "ready"
)

// CacheSnapshot is the read-only view of the local cache handed to
// consumers. Posts is ordered by creation time descending.
type CacheSnapshot struct {
	State CacheState
	Posts []*Post
}

// SyncEvent is delivered to listeners on every accepted snapshot. A
// non-nil Err is terminal for the subscription; no further events follow.
type SyncEvent struct {
	Snapshot CacheSnapshot
	Err      error
}

// SyncOptions configures a CollectionSync.
type SyncOptions struct {
	Backend   Backend       // Backend is the remote store. Required.
	Path      string        // Path is the posts collection path. Required.
	Logger    *slog.Logger  // Logger defaults to a debug logger to stderr.
	Snapshots SnapshotStore // Snapshots optionally persists each accepted cache for warm starts.
	Index     *PostIndex    // Index is optionally rebuilt on each accepted snapshot.
}

// CollectionSync keeps an ordered local cache of the remote posts
// collection. The store delivers whole collection state on every change,
// never deltas, and the cache is replaced wholesale on each notification —
// no partial state is ever observable.
type CollectionSync struct {
	backend   Backend
	path      string
	logger    *slog.Logger
	snapshots SnapshotStore
	index     *PostIndex

	sub    Subscription
	events stream[SyncEvent]

	mu    sync.RWMutex
	state CacheState
	posts []*Post
}

// NewCollectionSync creates a sync for the posts collection at Path.
func NewCollectionSync(opts SyncOptions) (*CollectionSync, error) {
	if opts.Backend == nil || opts.Path == "" {
		return nil, errors.New("Backend and Path are required")
	}

	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	return &CollectionSync{
		backend:   opts.Backend,
		path:      opts.Path,
		logger:    opts.Logger,
		snapshots: opts.Snapshots,
		index:     opts.Index,
		state:     CacheLoading,
	}, nil
}

// Start opens the live subscription. Snapshot events begin flowing to
// listeners immediately, including the store's current state.
func (cs *CollectionSync) Start() error {
	sub, err := cs.backend.Subscribe(cs.path, cs.accept, cs.failSubscription)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", cs.path, err)
	}

	cs.sub = sub
	return nil
}

// Stop cancels the live subscription.
func (cs *CollectionSync) Stop() {
	if cs.sub != nil {
		cs.sub.Cancel()
	}
}

// Listen registers fn for snapshot events and returns a cancel func. Every
// listener sees every event in delivery order.
func (cs *CollectionSync) Listen(fn func(SyncEvent)) func() {
	return cs.events.subscribe(fn)
}

// Cache returns the current cache snapshot. The posts slice is a copy;
// consumers may not mutate the cached posts.
func (cs *CollectionSync) Cache() CacheSnapshot {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	posts := make([]*Post, len(cs.posts))
	copy(posts, cs.posts)
	return CacheSnapshot{State: cs.state, Posts: posts}
}

// FetchOnce performs a one-shot read of the collection through the same
// decode path as the live subscription, without touching the cache.
func (cs *CollectionSync) FetchOnce(ctx context.Context) (CacheSnapshot, error) {
	snap, err := cs.backend.ReadOnce(ctx, cs.path)
	if err != nil {
		return CacheSnapshot{State: CacheLoading}, fmt.Errorf("failed to read %s: %w", cs.path, err)
	}

	state, posts := reconcile(snap)
	return CacheSnapshot{State: state, Posts: posts}, nil
}

// WarmPosts loads the last persisted cache, if a snapshot store is
// configured. The cache state stays CacheLoading until the first live
// snapshot is accepted; warm posts are a stopgap for the initial render.
func (cs *CollectionSync) WarmPosts(ctx context.Context) ([]*Post, error) {
	if cs.snapshots == nil {
		return nil, nil
	}

	posts, err := cs.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted snapshot: %w", err)
	}
	return posts, nil
}

// accept reconciles one remote snapshot into the cache and notifies
// listeners. Runs on the backend's delivery goroutine, one snapshot at a
// time, so listeners always observe snapshots in store order.
func (cs *CollectionSync) accept(snap Snapshot) {
	state, posts := reconcile(snap)

	cs.mu.Lock()
	cs.state = state
	cs.posts = posts
	cs.mu.Unlock()

	if cs.snapshots != nil {
		if err := cs.snapshots.Save(context.Background(), posts); err != nil {
			cs.logger.Error("failed to persist snapshot",
				slog.String("path", cs.path),
				slog.String("error", err.Error()))
		}
	}

	if cs.index != nil {
		if err := cs.index.Reindex(posts); err != nil {
			cs.logger.Error("failed to rebuild search index",
				slog.String("path", cs.path),
				slog.String("error", err.Error()))
		}
	}

	cs.events.emit(SyncEvent{Snapshot: CacheSnapshot{State: state, Posts: posts}})
}

func (cs *CollectionSync) failSubscription(err error) {
	cs.logger.Error("subscription failed",
		slog.String("path", cs.path),
		slog.String("error", err.Error()))

	cs.events.emit(SyncEvent{Snapshot: cs.Cache(), Err: err})
}

// reconcile decodes a raw collection snapshot into an ordered post list:
// attach keys as IDs, drop duplicate keys, and sort by creation time
// descending. The sort is stable so records with equal or missing
// timestamps keep their arrival order.
func reconcile(snap Snapshot) (CacheState, []*Post) {
	if !snap.Exists || len(snap.Records) == 0 {
		return CacheEmpty, nil
	}

	seen := make(map[string]bool, len(snap.Records))
	posts := make([]*Post, 0, len(snap.Records))
	for _, rec := range snap.Records {
		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true
		posts = append(posts, decodePost(rec))
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	return CacheReady, posts
}
