package pagination

// Page is one page of results together with the overall total.
type Page[E any] struct {
	Content       []E
	Number        int
	Size          int
	TotalElements int64
}

// NewPage builds a page for pageable. When the content shows the real total
// is smaller than reported (a short last page), the total is corrected.
func NewPage[E any](content []E, pageable Pageable, total int64) *Page[E] {
	if content == nil {
		content = []E{}
	}
	if n := int64(len(content)); n > 0 && pageable.Size > 0 &&
		pageable.Offset()+int64(pageable.Size) > total {
		total = pageable.Offset() + n
	}
	return &Page[E]{
		Content:       content,
		Number:        pageable.Page,
		Size:          pageable.Size,
		TotalElements: total,
	}
}

// TotalPages returns the number of pages; a zero size counts as one page.
func (p *Page[E]) TotalPages() int {
	if p.Size == 0 {
		return 1
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether a page follows this one.
func (p *Page[E]) HasNext() bool {
	return p.Number+1 < p.TotalPages()
}

// Response is the wire projection of a Page.
type Response[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	HasNext       bool  `json:"hasNext"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// ToResponse maps each element of page with fn. A nil page yields nil.
func ToResponse[E, D any](page *Page[E], fn func(E) D) *Response[D] {
	if page == nil {
		return nil
	}
	content := make([]D, 0, len(page.Content))
	for _, e := range page.Content {
		content = append(content, fn(e))
	}
	return build(page, content)
}

// ToResponseWithContent projects page with already-mapped content. A nil
// page yields nil.
func ToResponseWithContent[E, D any](page *Page[E], content []D) *Response[D] {
	if page == nil {
		return nil
	}
	return build(page, content)
}

func build[E, D any](page *Page[E], content []D) *Response[D] {
	if content == nil {
		content = []D{}
	}
	return &Response[D]{
		Content:       content,
		Page:          page.Number,
		Size:          page.Size,
		HasNext:       page.HasNext(),
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages(),
	}
}
