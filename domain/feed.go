package domain

import "context"

const (
	// DefaultPageSize is used when a request carries no valid page size.
	DefaultPageSize = 10
	// MaxPageSize caps the page size a client may ask for.
	MaxPageSize = 100
)

// Page selects a window of a feed. Pages are numbered from 1.
type Page struct {
	Number int
	Size   int
}

// NewPage returns a Page, replacing non-positive values with page 1 and DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of items skipped before the page starts.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// FeedService assembles viewer-annotated lists of posts.
type FeedService interface {
	List(ctx context.Context, viewerID int, page Page) ([]Post, error)
	Followed(ctx context.Context, viewerID int, page Page) ([]Post, error)
	Search(ctx context.Context, viewerID int, query string) ([]Post, error)
	Annotate(ctx context.Context, viewerID int, posts []Post) error
}
