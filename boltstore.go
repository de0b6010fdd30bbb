package souqfeed

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

const (
	boltFile    = "souqfeed.db"
	bucketPosts = "posts"
)

// BoltSnapshotStore implements SnapshotStore on a bbolt database. Posts
// are keyed by a big-endian sequence number so Load returns them in the
// exact order they were saved.
type BoltSnapshotStore struct {
	dataDir string
	db      *bbolt.DB
}

// NewBoltSnapshotStore creates a store writing under dataDir.
func NewBoltSnapshotStore(dataDir string) *BoltSnapshotStore {
	return &BoltSnapshotStore{dataDir: dataDir}
}

// Init opens the database and creates the posts bucket.
func (s *BoltSnapshotStore) Init() error {
	if _, err := os.Stat(s.dataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := bbolt.Open(filepath.Join(s.dataDir, boltFile), 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open bbolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPosts))
		if err != nil {
			return fmt.Errorf("failed to create posts bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.db = db
	return nil
}

// Save replaces the persisted post list with posts, in order.
func (s *BoltSnapshotStore) Save(ctx context.Context, posts []*Post) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketPosts)); err != nil {
			return fmt.Errorf("failed to reset posts bucket: %w", err)
		}

		b, err := tx.CreateBucket([]byte(bucketPosts))
		if err != nil {
			return fmt.Errorf("failed to create posts bucket: %w", err)
		}

		for i, post := range posts {
			data, err := post.Serialize()
			if err != nil {
				return fmt.Errorf("failed to serialize post %s: %w", post.ID, err)
			}

			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := b.Put(key, data); err != nil {
				return fmt.Errorf("failed to put post %s: %w", post.ID, err)
			}
		}

		return nil
	})
}

// Load returns the persisted post list in saved order.
func (s *BoltSnapshotStore) Load(ctx context.Context) ([]*Post, error) {
	var posts []*Post
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b == nil {
			return fmt.Errorf("posts bucket not found")
		}

		return b.ForEach(func(_, data []byte) error {
			post, err := Deserialize(data)
			if err != nil {
				return fmt.Errorf("failed to deserialize post: %w", err)
			}
			posts = append(posts, post)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Clear removes all persisted posts.
func (s *BoltSnapshotStore) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketPosts)); err != nil {
			return fmt.Errorf("failed to delete posts bucket: %w", err)
		}
		_, err := tx.CreateBucket([]byte(bucketPosts))
		return err
	})
}

// Close closes the database.
func (s *BoltSnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
