package souqfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Feed is the main entry point for the classifieds data layer. It keeps a
// local cache of the remote posts collection in sync, evaluates search and
// filter criteria over it, and submits new posts back through the same
// store the sync observes.
type Feed struct {
	cfg      *Config
	logger   *slog.Logger
	sync     *CollectionSync
	index    *PostIndex
	pipeline *SubmissionPipeline
	uploads  *UploadCoordinator
	profiles *ProfileResolver
	store    SnapshotStore
	renderer DescriptionRendererFunc
}

// Options is a struct for configuring a new Feed instance.
type Options struct {
	Backend   Backend                 // Backend is the remote store capability. Required.
	Session   Session                 // Session yields the current user identity. Required.
	Config    *Config                 // Config defaults to DefaultConfig.
	Logger    *slog.Logger            // Logger is the logger used by the Feed. Default is a debug logger to stderr.
	Snapshots SnapshotStore           // Snapshots optionally persists accepted caches for warm starts.
	Renderer  DescriptionRendererFunc // Renderer renders description markdown. A default renderer is used if not provided.
}

// New creates a new Feed instance with the provided options.
func New(opts Options) (*Feed, error) {
	if opts.Backend == nil || opts.Session == nil {
		return nil, errors.New("Backend and Session are required")
	}

	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}

	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	if opts.Renderer == nil {
		opts.Renderer = DefaultDescriptionRenderer()
	}

	if opts.Snapshots != nil {
		if err := opts.Snapshots.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
		}
	}

	ttl, err := opts.Config.profileTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid profile cache TTL: %w", err)
	}

	index := NewPostIndex()
	uploads := NewUploadCoordinator(opts.Backend, opts.Config.ImagePrefix, opts.Logger)
	profiles := NewProfileResolver(opts.Backend, opts.Config.UsersPath, opts.Config.ProfileCacheMax, ttl)

	sync, err := NewCollectionSync(SyncOptions{
		Backend:   opts.Backend,
		Path:      opts.Config.PostsPath,
		Logger:    opts.Logger,
		Snapshots: opts.Snapshots,
		Index:     index,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection sync: %w", err)
	}

	pipeline, err := NewSubmissionPipeline(PipelineOptions{
		Backend:   opts.Backend,
		Session:   opts.Session,
		Uploads:   uploads,
		Profiles:  profiles,
		PostsPath: opts.Config.PostsPath,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission pipeline: %w", err)
	}

	return &Feed{
		cfg:      opts.Config,
		logger:   opts.Logger,
		sync:     sync,
		index:    index,
		pipeline: pipeline,
		uploads:  uploads,
		profiles: profiles,
		store:    opts.Snapshots,
		renderer: opts.Renderer,
	}, nil
}

// Start opens the live posts subscription. The sync runs for the lifetime
// of the consuming view; teardown happens through Close.
func (f *Feed) Start() error {
	return f.sync.Start()
}

// Close stops the subscription and releases the index and snapshot store.
func (f *Feed) Close() error {
	f.sync.Stop()

	if err := f.index.Close(); err != nil {
		return fmt.Errorf("failed to close search index: %w", err)
	}

	if f.store != nil {
		return f.store.Close()
	}
	return nil
}

// Cache returns the current local cache snapshot.
func (f *Feed) Cache() CacheSnapshot {
	return f.sync.Cache()
}

// Listen registers fn for cache change events and returns a cancel func.
func (f *Feed) Listen(fn func(SyncEvent)) func() {
	return f.sync.Listen(fn)
}

// WarmPosts returns the last persisted cache, for rendering before the
// first live snapshot arrives.
func (f *Feed) WarmPosts(ctx context.Context) ([]*Post, error) {
	return f.sync.WarmPosts(ctx)
}

// Filter evaluates criteria over the current cache, preserving cache
// order.
func (f *Feed) Filter(criteria FilterCriteria) []*Post {
	return EvaluatePosts(f.sync.Cache().Posts, criteria)
}

// Page evaluates criteria over the current cache and returns one page of
// the result using the configured page size.
func (f *Feed) Page(criteria FilterCriteria, pageNum int) Paginator {
	return NewPaginator(f.Filter(criteria), pageNum, f.cfg.PageSize)
}

// SearchRanked runs a ranked free-text search over the indexed cache and
// returns matching posts, best match first.
func (f *Feed) SearchRanked(text string, limit int) ([]*Post, error) {
	ids, err := f.index.Search(text, limit)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Post)
	for _, post := range f.sync.Cache().Posts {
		byID[post.ID] = post
	}

	posts := make([]*Post, 0, len(ids))
	for _, id := range ids {
		if post, ok := byID[id]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

// Submit runs one submission attempt and returns the new post's
// store-assigned key. The new post reaches the cache through the normal
// subscription path.
func (f *Feed) Submit(ctx context.Context, sub Submission, obs *SubmitObserver) (string, error) {
	return f.pipeline.Submit(ctx, sub, obs)
}

// RenderDescription renders a post's description markdown to HTML for the
// detail view.
func (f *Feed) RenderDescription(post *Post) (string, error) {
	return f.renderer(post.Description)
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelDebug,
		}))
}
