package souqfeed

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// PostIndex is an in-memory full-text index over the cached posts, rebuilt
// wholesale on every accepted snapshot. It backs ranked free-text search;
// the deterministic filter evaluation does not use it.
type PostIndex struct {
	mu    sync.Mutex
	index bleve.Index
}

// NewPostIndex creates an empty index. Searching before the first Reindex
// yields no results.
func NewPostIndex() *PostIndex {
	return &PostIndex{}
}

// indexedPost is the subset of post fields worth matching on.
type indexedPost struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	AuthorName  string `json:"authorName"`
}

func postIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("description", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("category", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("location", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("authorName", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("post", docMapping)
	return indexMapping
}

// Reindex replaces the index contents with posts. The swap is
// all-or-nothing: a failed rebuild leaves the previous index serving.
func (ix *PostIndex) Reindex(posts []*Post) error {
	index, err := bleve.NewMemOnly(postIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	batch := index.NewBatch()
	for _, post := range posts {
		doc := indexedPost{
			Title:       post.Title,
			Description: post.Description,
			Category:    post.Category,
			Location:    post.Location,
			AuthorName:  post.AuthorName,
		}
		if err := batch.Index(post.ID, doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index post %s: %w", post.ID, err)
		}
	}

	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to apply index batch: %w", err)
	}

	ix.mu.Lock()
	old := ix.index
	ix.index = index
	ix.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search returns the IDs of posts matching text, best match first.
func (ix *PostIndex) Search(text string, limit int) ([]string, error) {
	ix.mu.Lock()
	index := ix.index
	ix.mu.Unlock()

	if index == nil || text == "" {
		return nil, nil
	}

	if limit <= 0 {
		limit = 10
	}

	query := bleve.NewMatchQuery(text)
	request := bleve.NewSearchRequestOptions(query, limit, 0, false)

	result, err := index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Close closes the underlying index.
func (ix *PostIndex) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index == nil {
		return nil
	}

	err := ix.index.Close()
	ix.index = nil
	return err
}
