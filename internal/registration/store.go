package registration

import (
	"context"
	"time"
)

// Store is the persistence boundary for registrations. Lookups return
// (nil, nil) when no row matches.
type Store interface {
	Create(ctx context.Context, r *Registration) (*Registration, error)
	FindByID(ctx context.Context, id int64) (*Registration, error)
	FindByUserAndExam(ctx context.Context, userID, examID int64) (*Registration, error)
	Update(ctx context.Context, r *Registration) (*Registration, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, current, size int) ([]*Registration, int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Trend(ctx context.Context, from time.Time, days int) ([]*TrendPoint, error)
}
