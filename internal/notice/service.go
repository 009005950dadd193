package notice

import (
	"context"
	"log/slog"
	"time"

	dErrors "examreg/pkg/domain-errors"
)

// Service owns announcements: admin CRUD and the candidate reading
// view.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create saves a new draft notice.
func (s *Service) Create(ctx context.Context, authorID int64, req *SaveRequest) (*Notice, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, &Notice{
		Title:     req.Title,
		Content:   req.Content,
		Type:      req.Type,
		Top:       req.Top,
		Status:    StatusDraft,
		PublishBy: authorID,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create notice")
	}
	s.logger.InfoContext(ctx, "notice created", "notice_id", created.ID, "title", created.Title)
	return created, nil
}

// Update rewrites a notice's content.
func (s *Service) Update(ctx context.Context, id int64, req *SaveRequest) (*Notice, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Title = req.Title
	n.Content = req.Content
	n.Type = req.Type
	n.Top = req.Top

	updated, err := s.store.Update(ctx, n)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notice")
	}
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "notice not found")
	}
	return updated, nil
}

// Publish makes a notice visible to candidates.
func (s *Service) Publish(ctx context.Context, id int64) (*Notice, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == StatusPublished {
		return n, nil
	}

	now := s.now()
	n.Status = StatusPublished
	n.PublishTime = &now
	return s.save(ctx, n)
}

// Retract pulls a published notice back to draft.
func (s *Service) Retract(ctx context.Context, id int64) (*Notice, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == StatusDraft {
		return n, nil
	}

	n.Status = StatusDraft
	n.PublishTime = nil
	return s.save(ctx, n)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete notice")
	}
	return nil
}

// Read returns a published notice and counts the view. Drafts are
// invisible to candidates.
func (s *Service) Read(ctx context.Context, id int64) (*Notice, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusPublished {
		return nil, dErrors.New(dErrors.CodeNotFound, "notice not found")
	}

	if err := s.store.IncrementViews(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to count notice view", "notice_id", id, "error", err)
	} else {
		n.ViewCount++
	}
	return n, nil
}

// Published pages the notices candidates can see, pinned first.
func (s *Service) Published(ctx context.Context, title string, current, size int) (*Page, error) {
	return s.list(ctx, Filter{Title: title, Status: StatusPublished}, current, size)
}

// Top returns the latest published notices for the portal banner. The
// paged listing already orders pinned first, so the first page is the
// banner.
func (s *Service) Top(ctx context.Context, limit int) ([]*Notice, error) {
	if limit < 1 || limit > 20 {
		limit = 5
	}
	page, err := s.list(ctx, Filter{Status: StatusPublished}, 1, limit)
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

// List pages all notices for the admin view.
func (s *Service) List(ctx context.Context, f Filter, current, size int) (*Page, error) {
	return s.list(ctx, f, current, size)
}

// Get returns one notice regardless of status, for the admin editor.
func (s *Service) Get(ctx context.Context, id int64) (*Notice, error) {
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (*Notice, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notice")
	}
	if n == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "notice not found")
	}
	return n, nil
}

func (s *Service) save(ctx context.Context, n *Notice) (*Notice, error) {
	updated, err := s.store.Update(ctx, n)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notice")
	}
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "notice not found")
	}
	return updated, nil
}

func (s *Service) list(ctx context.Context, f Filter, current, size int) (*Page, error) {
	if current < 1 {
		current = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	page, err := s.store.List(ctx, f, current, size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notices")
	}
	return page, nil
}
