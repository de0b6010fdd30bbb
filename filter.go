package souqfeed

import "strings"

// FilterCriteria contains the search and filter inputs for one feed view.
// The criteria value is the entire input: evaluation keeps no state between
// calls.
type FilterCriteria struct {
	SearchText string // Free-text search, case-insensitive substring match. Empty matches everything.
	Category   string // Exact category to filter by. Empty matches everything.
	Location   string // Exact location to filter by. Empty matches everything.
}

// IsZero returns true if the criteria would match every post.
func (c FilterCriteria) IsZero() bool {
	return c.SearchText == "" && c.Category == "" && c.Location == ""
}

// EvaluatePosts returns the posts matching criteria, preserving the order
// of the input. Evaluation is pure: the same posts and criteria always
// yield the same result.
func EvaluatePosts(posts []*Post, criteria FilterCriteria) []*Post {
	matched := make([]*Post, 0, len(posts))
	for _, post := range posts {
		if postMatches(post, criteria) {
			matched = append(matched, post)
		}
	}
	return matched
}

func postMatches(post *Post, criteria FilterCriteria) bool {
	if criteria.Category != "" && criteria.Category != post.Category {
		return false
	}

	if criteria.Location != "" && criteria.Location != post.Location {
		return false
	}

	if criteria.SearchText == "" {
		return true
	}

	search := strings.ToLower(criteria.SearchText)
	for _, field := range []string{post.Title, post.Description, post.Category, post.Location} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}

	return false
}
