// Package pagination implements the offset pagination contract shared by
// every paginated listing.
package pagination

// Params describes a page request. Take is the page size, Skip an extra
// offset applied before paging.
type Params struct {
	Page int `form:"page" json:"page"`
	Skip int `form:"skip" json:"skip"`
	Take int `form:"take" json:"take"`
}

// Page is a slice of results plus the number of the following page, nil
// when there is none.
type Page[T any] struct {
	Data     []T  `json:"data"`
	NextPage *int `json:"next_page"`
}

// WithDefaults fills Take when it is not positive and clamps negative
// Page and Skip to zero.
func (p Params) WithDefaults(take int) Params {
	if p.Take <= 0 {
		p.Take = take
	}
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

// Offset is the number of rows to skip in the underlying store.
func (p Params) Offset() int {
	return p.Skip + p.Page*p.Take
}

// NextPage returns nil when the listing is exhausted: either the offset
// reached the total or everything was returned in one go.
func NextPage(p Params, total, returned int) *int {
	if total-p.Offset() <= 0 || returned == total {
		return nil
	}
	next := p.Page + 1
	return &next
}

// New builds a Page from the rows of one request.
func New[T any](data []T, p Params, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:     data,
		NextPage: NextPage(p, total, len(data)),
	}
}
