package souqfeed

import (
	"encoding/json"
	"time"
)

// Post represents a single classified listing.
type Post struct {
	ID          string    `json:"id"`          // ID is the store-assigned key, never client-set
	Title       string    `json:"title"`       // Title is the listing headline
	Description string    `json:"description"` // Description is the listing body text
	Price       string    `json:"price"`       // Price is free-form text, optional
	Category    string    `json:"category"`    // Category is the listing category, optional
	Location    string    `json:"location"`    // Location is the city or area
	Phone       string    `json:"phone"`       // Phone is the contact number shown on the listing
	AuthorID    string    `json:"authorId"`    // AuthorID references the author's profile
	AuthorName  string    `json:"authorName"`  // AuthorName is denormalized from the profile at write time
	AuthorPhone string    `json:"authorPhone"` // AuthorPhone is denormalized from the profile at write time
	ImageURL    string    `json:"imageUrl"`    // ImageURL is the uploaded media URL, optional
	CreatedAt   time.Time `json:"createdAt"`   // CreatedAt is the server-assigned creation time
}

// UserProfile is the author record owned by the auth collaborator.
type UserProfile struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	IsAdmin bool   `json:"isAdmin"`
}

// HasImage returns true if the post carries an uploaded image.
func (p *Post) HasImage() bool {
	return p.ImageURL != ""
}

// HasPrice returns true if the post has a price set.
func (p *Post) HasPrice() bool {
	return p.Price != ""
}

// HasCreatedAt returns true if the post has a resolvable creation time.
func (p *Post) HasCreatedAt() bool {
	return !p.CreatedAt.IsZero()
}

// IsOwnedBy returns true if the post was authored by the given profile.
func (p *Post) IsOwnedBy(profile *UserProfile) bool {
	return profile != nil && profile.UID == p.AuthorID
}

// Serialize serializes the post to a byte slice.
func (p *Post) Serialize() ([]byte, error) {
	return json.Marshal(p)
}

// Deserialize deserializes the byte slice to a post.
func Deserialize(data []byte) (*Post, error) {
	var post Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// decodePost converts one raw snapshot record into a Post, attaching the
// record key as the post ID. Field shapes are not guaranteed uniform across
// writers, so every field decodes tolerantly.
func decodePost(rec Record) *Post {
	return &Post{
		ID:          rec.Key,
		Title:       anyToString(rec.Fields["title"]),
		Description: anyToString(rec.Fields["description"]),
		Price:       anyToString(rec.Fields["price"]),
		Category:    anyToString(rec.Fields["category"]),
		Location:    anyToString(rec.Fields["location"]),
		Phone:       anyToString(rec.Fields["phone"]),
		AuthorID:    anyToString(rec.Fields["authorId"]),
		AuthorName:  anyToString(rec.Fields["authorName"]),
		AuthorPhone: anyToString(rec.Fields["authorPhone"]),
		ImageURL:    anyToString(rec.Fields["imageUrl"]),
		CreatedAt:   anyToTime(rec.Fields["timestamp"]),
	}
}

// decodeProfile converts a raw user record into a UserProfile.
func decodeProfile(uid string, fields map[string]any) *UserProfile {
	return &UserProfile{
		UID:     uid,
		Name:    anyToString(fields["name"]),
		Phone:   anyToString(fields["phone"]),
		IsAdmin: anyToBool(fields["isAdmin"]),
	}
}

func anyToString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func anyToBool(value any) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	return false
}

// anyToTime normalizes the timestamp shapes found in the store: epoch
// milliseconds as a number, a structured {"seconds": N} mapping, or a
// time.Time. Anything else yields the zero time.
func anyToTime(value any) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case map[string]any:
		if secs, ok := anyToInt64(v["seconds"]); ok {
			return time.Unix(secs, 0)
		}
	default:
		if ms, ok := anyToInt64(value); ok {
			return time.UnixMilli(ms)
		}
	}
	return time.Time{}
}

func anyToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}
