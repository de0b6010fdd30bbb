package souqfeed

import (
	"context"
	"io"
)

// Record is one keyed entry of a collection snapshot. Fields is the raw
// field mapping as the store delivered it.
type Record struct {
	Key    string
	Fields map[string]any
}

// Snapshot is a complete, point-in-time view of a remote collection. The
// store delivers whole state, never deltas. Records preserve the order of
// arrival, which is the tie-break when timestamps collide.
type Snapshot struct {
	Exists  bool
	Records []Record
}

// Subscription is a live listener on a remote path. Teardown belongs to the
// consuming view's lifecycle, not to this package.
type Subscription interface {
	Cancel()
}

// Blob is a binary payload selected for upload, along with its original
// file name and size in bytes.
type Blob struct {
	Name    string
	Size    int64
	Content io.Reader
}

// UploadHandle is the store's view of one resumable transfer. Callbacks may
// fire from the transport's goroutines; registration must happen before the
// transfer can complete.
type UploadHandle interface {
	// OnProgress registers a callback invoked with bytes transferred so far
	// and the total byte count.
	OnProgress(func(transferred, total int64))
	// OnError registers a callback invoked if the transfer fails.
	OnError(func(error))
	// OnComplete registers a callback invoked once the transfer finishes.
	OnComplete(func())
	// ResolveURL returns the durable public URL of the uploaded object.
	// Valid only after completion.
	ResolveURL(ctx context.Context) (string, error)
	// Cancel aborts the transfer. Safe to call at any point.
	Cancel()
}

// ServerTimestamp marks a field the backend replaces with its own clock at
// write time. Clients never assign creation timestamps.
type ServerTimestamp struct{}

// Backend is the remote store capability this package consumes. Retry and
// timeout policy live behind this interface, not in front of it.
type Backend interface {
	// Subscribe delivers the full collection state at path to onSnapshot on
	// every remote change, including the current state immediately.
	// onError receives a terminal error for this subscription.
	Subscribe(path string, onSnapshot func(Snapshot), onError func(error)) (Subscription, error)

	// ReadOnce fetches a single snapshot of the path. A single-entity path
	// yields one record carrying that entity's fields.
	ReadOnce(ctx context.Context, path string) (Snapshot, error)

	// Append writes a record under a freshly generated key and returns that
	// key. ServerTimestamp field values are resolved by the store.
	Append(ctx context.Context, path string, fields map[string]any) (string, error)

	// Upload starts a resumable transfer of blob to the given storage key.
	Upload(ctx context.Context, key string, blob Blob) UploadHandle
}

// Session yields the current authenticated identity, if any. Owned by the
// auth collaborator; read-only here.
type Session interface {
	CurrentUserID() (string, bool)
}
