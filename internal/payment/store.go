package payment

import (
	"context"
	"time"
)

// Store is the persistence boundary for payment orders. Lookups return
// (nil, nil) when no row matches.
type Store interface {
	Create(ctx context.Context, o *Order) (*Order, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	// FindByRegistration returns the registration's most recent order.
	FindByRegistration(ctx context.Context, registrationID int64) (*Order, error)
	Update(ctx context.Context, o *Order) (*Order, error)
	List(ctx context.Context, f Filter, current, size int) ([]*Order, int64, error)
	ListExpired(ctx context.Context, now time.Time) ([]*Order, error)
	Stats(ctx context.Context) (*Stats, error)
	PaidTrend(ctx context.Context, from time.Time, days int) ([]*TrendPoint, error)
}
