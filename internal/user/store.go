package user

import "context"

// Store is pure I/O for account records. Find methods return (nil, nil)
// when no record matches; uniqueness and lockout rules live in the service.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByIDCard(ctx context.Context, idCard string) (*User, error)
	Update(ctx context.Context, u *User) error
	Stats(ctx context.Context) (Stats, error)
}
