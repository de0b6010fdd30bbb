package souqfeed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// UploadState is the lifecycle state of one upload session.
type UploadState string

const (
	UploadIdle       UploadState = "idle"
	UploadInProgress UploadState = "in_progress"
	UploadSucceeded  UploadState = "succeeded"
	UploadFailed     UploadState = "failed"
	UploadCancelled  UploadState = "cancelled"
)

// UploadCoordinator starts resumable media uploads against the backend and
// hands out sessions that track them. One session per submission attempt;
// the submission pipeline enforces that by construction.
type UploadCoordinator struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
	now     func() time.Time
}

// NewUploadCoordinator creates a coordinator writing under the given key
// prefix (e.g. "post_images").
func NewUploadCoordinator(backend Backend, prefix string, logger *slog.Logger) *UploadCoordinator {
	if logger == nil {
		logger = defaultLogger()
	}

	return &UploadCoordinator{
		backend: backend,
		prefix:  strings.Trim(prefix, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// DestinationKey derives a collision-resistant storage key for the given
// file name: the submission timestamp keeps repeated uploads of the same
// file from overwriting each other, and the slugified name keeps the key
// safe for URLs.
func (c *UploadCoordinator) DestinationKey(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return fmt.Sprintf("%s/%d_%s%s", c.prefix, c.now().UnixMilli(), slug.Make(base), ext)
}

// Start begins uploading blob and returns the session tracking it.
// onProgress, if non-nil, is registered before the transfer can emit
// anything, so no fraction is missed. Further listeners can be added with
// OnProgress.
func (c *UploadCoordinator) Start(ctx context.Context, blob Blob, onProgress func(float64)) *UploadSession {
	session := &UploadSession{
		id:     uuid.NewString(),
		key:    c.DestinationKey(blob.Name),
		total:  blob.Size,
		state:  UploadInProgress,
		done:   make(chan struct{}),
		logger: c.logger,
	}

	if onProgress != nil {
		session.OnProgress(onProgress)
	}

	handle := c.backend.Upload(ctx, session.key, blob)
	session.handle = handle

	handle.OnProgress(session.observeProgress)
	handle.OnError(session.fail)
	handle.OnComplete(func() {
		url, err := handle.ResolveURL(ctx)
		if err != nil {
			session.fail(fmt.Errorf("failed to resolve upload URL: %w", err))
			return
		}
		session.succeed(url)
	})

	c.logger.Debug("upload started",
		slog.String("session", session.id),
		slog.String("key", session.key))

	return session
}

// UploadSession tracks one in-flight media transfer. Progress fractions are
// monotonically non-decreasing and exactly one terminal outcome is
// reported, even when transport callbacks race with cancellation.
type UploadSession struct {
	id     string
	key    string
	total  int64
	handle UploadHandle
	logger *slog.Logger
	done   chan struct{}

	mu        sync.Mutex
	state     UploadState
	fraction  float64
	url       string
	err       error
	nextSubID int
	listeners map[int]func(float64)
}

// ID returns the unique session identifier.
func (s *UploadSession) ID() string {
	return s.id
}

// Key returns the derived storage key the blob is written under.
func (s *UploadSession) Key() string {
	return s.key
}

// State returns the current session state.
func (s *UploadSession) State() UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fraction returns the latest progress fraction in [0,1].
func (s *UploadSession) Fraction() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fraction
}

// OnProgress registers fn for progress fractions and returns a cancel func.
// Callbacks run with the session lock held so nothing can be delivered
// after a terminal state; fn must not call back into the session.
func (s *UploadSession) OnProgress(fn func(float64)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(float64))
	}

	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Cancel aborts the session. All later events, including a success racing
// with the cancellation, are suppressed.
func (s *UploadSession) Cancel() {
	s.mu.Lock()
	if s.state != UploadInProgress {
		s.mu.Unlock()
		return
	}
	s.state = UploadCancelled
	s.err = ErrUploadCancelled
	close(s.done)
	s.mu.Unlock()

	s.handle.Cancel()
	s.logger.Debug("upload cancelled", slog.String("session", s.id))
}

// Wait blocks until the session reaches a terminal state and returns the
// durable URL on success. Context cancellation cancels the session.
func (s *UploadSession) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		s.Cancel()
		return "", ctx.Err()
	case <-s.done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == UploadSucceeded {
		return s.url, nil
	}
	return "", s.err
}

func (s *UploadSession) observeProgress(transferred, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != UploadInProgress {
		return
	}

	if total <= 0 {
		total = s.total
	}
	if total <= 0 {
		return
	}

	fraction := float64(transferred) / float64(total)
	if fraction > 1 {
		fraction = 1
	}
	if fraction < s.fraction {
		// The transport re-reported an earlier offset; keep progress monotonic.
		return
	}
	s.fraction = fraction

	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.listeners[id](fraction)
	}
}

func (s *UploadSession) succeed(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != UploadInProgress {
		return
	}
	s.state = UploadSucceeded
	s.url = url
	s.fraction = 1
	close(s.done)
}

func (s *UploadSession) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != UploadInProgress {
		return
	}
	s.state = UploadFailed
	s.err = err
	close(s.done)
}
