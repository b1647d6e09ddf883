package util

// Calculate clamps page/size to sane bounds and converts them to an
// offset/limit pair.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset = (page - 1) * size
	return offset, size
}

// Clamp returns the effective page/size after the same bounds as Calculate.
func Clamp(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return page, size
}

// Page is the paginated collection wrapper placed in response envelopes.
type Page struct {
	Items        any   `json:"items"`
	Total        int64 `json:"total"`
	Page         int   `json:"page"`
	Size         int   `json:"size"`
	Pages        int   `json:"pages"`
	NextPage     *int  `json:"next_page"`
	PreviousPage *int  `json:"previous_page"`
}

func NewPage(items any, total int64, page, size int) Page {
	page, size = Clamp(page, size)
	pages := int((total + int64(size) - 1) / int64(size))

	p := Page{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
	if page < pages {
		next := page + 1
		p.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		p.PreviousPage = &prev
	}
	return p
}
