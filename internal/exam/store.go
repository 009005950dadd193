package exam

import "context"

// Store is the persistence boundary for exams and their sites.
// Lookup methods return (nil, nil) when no row matches.
type Store interface {
	Create(ctx context.Context, e *Exam) (*Exam, error)
	FindByID(ctx context.Context, id int64) (*Exam, error)
	FindByName(ctx context.Context, name string) (*Exam, error)
	Update(ctx context.Context, e *Exam) (*Exam, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, current, size int) (*Page, error)
	Stats(ctx context.Context) (*Stats, error)

	CreateSite(ctx context.Context, s *Site) (*Site, error)
	FindSite(ctx context.Context, id int64) (*Site, error)
	SitesByExam(ctx context.Context, examID int64) ([]*Site, error)
	UpdateSite(ctx context.Context, s *Site) (*Site, error)
	DeleteSite(ctx context.Context, id int64) error
}
