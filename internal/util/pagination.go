package util

const (
	// ArticlePageSize is the public catalog page size.
	ArticlePageSize = 12
	// AdminPageSize is the page size of every admin listing.
	AdminPageSize = 20
)

func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = ArticlePageSize
	}
	return (page - 1) * size, size
}

// PageMeta builds the pagination envelope returned next to every listing.
func PageMeta(page, size int, total int64) map[string]any {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	return map[string]any{
		"page":        page,
		"size":        size,
		"total":       total,
		"total_pages": (total + int64(size) - 1) / int64(size),
		"has_prev":    page > 1,
		"has_next":    int64(offset+size) < total,
	}
}
