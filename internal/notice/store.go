package notice

import "context"

// Store is the persistence boundary for notices. Lookups return
// (nil, nil) when no row matches.
type Store interface {
	Create(ctx context.Context, n *Notice) (*Notice, error)
	FindByID(ctx context.Context, id int64) (*Notice, error)
	Update(ctx context.Context, n *Notice) (*Notice, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, current, size int) (*Page, error)
	IncrementViews(ctx context.Context, id int64) error
}
