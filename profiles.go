package souqfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ProfileResolver reads author profiles from the users collection, with a
// TTL'd LRU cache in front of the one-shot reads. Profiles are owned by
// the auth collaborator and are read-only here.
type ProfileResolver struct {
	backend   Backend
	usersPath string
	cache     *expirable.LRU[string, *UserProfile]
}

// NewProfileResolver creates a resolver over the users collection at
// usersPath, caching up to maxSize profiles for ttl each.
func NewProfileResolver(backend Backend, usersPath string, maxSize int, ttl time.Duration) *ProfileResolver {
	return &ProfileResolver{
		backend:   backend,
		usersPath: usersPath,
		cache:     expirable.NewLRU[string, *UserProfile](maxSize, nil, ttl),
	}
}

// Resolve returns the profile for uid, reading through the cache. A uid
// with no profile record yields ErrProfileMissing.
func (r *ProfileResolver) Resolve(ctx context.Context, uid string) (*UserProfile, error) {
	if profile, ok := r.cache.Get(uid); ok {
		return profile, nil
	}

	snap, err := r.backend.ReadOnce(ctx, r.usersPath+"/"+uid)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", uid, err)
	}

	if !snap.Exists || len(snap.Records) == 0 {
		return nil, ErrProfileMissing
	}

	profile := decodeProfile(uid, snap.Records[0].Fields)
	r.cache.Add(uid, profile)
	return profile, nil
}

// Invalidate drops a cached profile, forcing the next Resolve to re-read.
func (r *ProfileResolver) Invalidate(uid string) {
	r.cache.Remove(uid)
}
