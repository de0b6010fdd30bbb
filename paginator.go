package souqfeed

// Paginator holds one page of a filtered feed along with the bookkeeping
// the view needs to render page controls.
type Paginator struct {
	TotalPages  int
	CurrentPage int
	NextPage    int
	PrevPage    int
	PageSize    int
	HasNext     bool
	HasPrev     bool
	HasPosts    bool
	TotalPosts  int
	Posts       []*Post
}

// NewPaginator slices posts into the requested page, preserving order.
// Page numbers are 1-based; out-of-range requests clamp to valid pages.
func NewPaginator(posts []*Post, currentPage, pageSize int) Paginator {
	if pageSize < 1 {
		pageSize = 10
	}

	total := len(posts)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	start := (currentPage - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	nextPage := currentPage + 1
	if nextPage > totalPages {
		nextPage = totalPages
	}

	prevPage := currentPage - 1
	if prevPage < 1 {
		prevPage = 1
	}

	return Paginator{
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		NextPage:    nextPage,
		PrevPage:    prevPage,
		PageSize:    pageSize,
		HasNext:     currentPage < totalPages,
		HasPrev:     currentPage > 1,
		HasPosts:    total > 0,
		TotalPosts:  total,
		Posts:       posts[start:end],
	}
}
