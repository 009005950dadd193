package exam

import (
	"context"
	"fmt"
	"log/slog"

	dErrors "examreg/pkg/domain-errors"
)

// Service owns the exam lifecycle and site management.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create saves a new exam in draft status.
func (s *Service) Create(ctx context.Context, createBy int64, req *CreateRequest) (*Exam, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByName(ctx, req.Name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check exam name")
	}
	if existing != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "an exam with this name already exists")
	}

	created, err := s.store.Create(ctx, &Exam{
		Name:              req.Name,
		Type:              req.Type,
		Date:              req.Date,
		TimeSlot:          req.TimeSlot,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		Fee:               req.Fee,
		Description:       req.Description,
		Notice:            req.Notice,
		Status:            StatusDraft,
		TotalQuota:        req.TotalQuota,
		CreateBy:          createBy,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create exam")
	}

	s.logger.InfoContext(ctx, "exam created",
		slog.Int64("exam_id", created.ID),
		slog.String("name", created.Name))
	return created, nil
}

// Update rewrites an exam's editable fields. Ended exams are frozen.
func (s *Service) Update(ctx context.Context, id int64, req *UpdateRequest) (*Exam, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusEnded {
		return nil, dErrors.New(dErrors.CodePrecondition, "a completed exam cannot be modified")
	}

	if req.Name != "" && req.Name != e.Name {
		dup, err := s.store.FindByName(ctx, req.Name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check exam name")
		}
		if dup != nil && dup.ID != id {
			return nil, dErrors.New(dErrors.CodeConflict, "an exam with this name already exists")
		}
		e.Name = req.Name
	}
	if req.Type != "" {
		e.Type = req.Type
	}
	if !req.Date.IsZero() {
		e.Date = req.Date
	}
	if req.TimeSlot != "" {
		e.TimeSlot = req.TimeSlot
	}
	if !req.RegistrationStart.IsZero() {
		e.RegistrationStart = req.RegistrationStart
	}
	if !req.RegistrationEnd.IsZero() {
		e.RegistrationEnd = req.RegistrationEnd
	}
	if req.Fee > 0 {
		e.Fee = req.Fee
	}
	if req.Description != "" {
		e.Description = req.Description
	}
	if req.Notice != "" {
		e.Notice = req.Notice
	}
	if req.TotalQuota > 0 {
		e.TotalQuota = req.TotalQuota
	}

	updated, err := s.store.Update(ctx, e)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exam")
	}
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "exam not found")
	}
	return updated, nil
}

// Publish moves a draft exam into the published state where
// candidates can see it and, window permitting, register for it.
func (s *Service) Publish(ctx context.Context, id int64) (*Exam, error) {
	return s.transition(ctx, id, StatusDraft, StatusPublished, "only draft exams can be published")
}

// Unpublish pulls an exam back to draft. Ended exams stay ended.
func (s *Service) Unpublish(ctx context.Context, id int64) (*Exam, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusEnded {
		return nil, dErrors.New(dErrors.CodePrecondition, "a completed exam cannot be unpublished")
	}
	if e.Status == StatusDraft {
		return e, nil
	}
	return s.setStatus(ctx, e, StatusDraft)
}

// OpenRegistration and CloseRegistration flip the window state
// explicitly, overriding the time window for the status display.
func (s *Service) OpenRegistration(ctx context.Context, id int64) (*Exam, error) {
	return s.transition(ctx, id, StatusPublished, StatusRegistrationOpen, "only published exams can open registration")
}

func (s *Service) CloseRegistration(ctx context.Context, id int64) (*Exam, error) {
	return s.transition(ctx, id, StatusRegistrationOpen, StatusRegistrationDone, "registration is not open")
}

// End marks an exam as completed.
func (s *Service) End(ctx context.Context, id int64) (*Exam, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusEnded {
		return e, nil
	}
	return s.setStatus(ctx, e, StatusEnded)
}

// Delete removes an exam. Exams with registrations cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	e, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if e.CurrentCount > 0 {
		return dErrors.New(dErrors.CodePrecondition, "an exam with registrations cannot be deleted")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete exam")
	}
	s.logger.InfoContext(ctx, "exam deleted", slog.Int64("exam_id", id))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Exam, error) {
	return s.get(ctx, id)
}

// Site returns one site by ID.
func (s *Service) Site(ctx context.Context, id int64) (*Site, error) {
	return s.getSite(ctx, id)
}

// List pages exams with optional filters. Admin view: all statuses.
func (s *Service) List(ctx context.Context, f Filter, current, size int) (*Page, error) {
	current, size = clampPage(current, size)
	page, err := s.store.List(ctx, f, current, size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exams")
	}
	return page, nil
}

// Available pages the exams candidates can currently see: published or
// open for registration.
func (s *Service) Available(ctx context.Context, name string, current, size int) (*Page, error) {
	current, size = clampPage(current, size)

	pub, err := s.store.List(ctx, Filter{Name: name, Status: StatusPublished}, 1, 1000)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exams")
	}
	open, err := s.store.List(ctx, Filter{Name: name, Status: StatusRegistrationOpen}, 1, 1000)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exams")
	}

	all := append(open.Records, pub.Records...)
	total := int64(len(all))
	start := (current - 1) * size
	if start >= len(all) {
		all = nil
	} else {
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return &Page{Records: all, Total: total, Current: current, Size: size}, nil
}

// Sites returns the sites attached to an exam.
func (s *Service) Sites(ctx context.Context, examID int64) ([]*Site, error) {
	if _, err := s.get(ctx, examID); err != nil {
		return nil, err
	}
	sites, err := s.store.SitesByExam(ctx, examID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exam sites")
	}
	return sites, nil
}

// AddSite attaches a site to an exam.
func (s *Service) AddSite(ctx context.Context, examID int64, site *Site) (*Site, error) {
	if site.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "site name is required")
	}
	if site.Capacity <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "site capacity must be positive")
	}
	if _, err := s.get(ctx, examID); err != nil {
		return nil, err
	}

	site.ExamID = examID
	site.CurrentCount = 0
	if site.Status == 0 {
		site.Status = SiteEnabled
	}
	created, err := s.store.CreateSite(ctx, site)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create exam site")
	}
	return created, nil
}

// UpdateSite edits a site. Capacity cannot drop below the seats taken.
func (s *Service) UpdateSite(ctx context.Context, siteID int64, in *Site) (*Site, error) {
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if in.Capacity > 0 {
		if in.Capacity < site.CurrentCount {
			return nil, dErrors.New(dErrors.CodePrecondition,
				fmt.Sprintf("capacity cannot be below the %d seats already taken", site.CurrentCount))
		}
		site.Capacity = in.Capacity
	}
	if in.Name != "" {
		site.Name = in.Name
	}
	if in.Province != "" {
		site.Province = in.Province
	}
	if in.City != "" {
		site.City = in.City
	}
	if in.Address != "" {
		site.Address = in.Address
	}
	if in.ContactPhone != "" {
		site.ContactPhone = in.ContactPhone
	}
	if in.Status != 0 {
		site.Status = in.Status
	}

	updated, err := s.store.UpdateSite(ctx, site)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exam site")
	}
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "exam site not found")
	}
	return updated, nil
}

// DeleteSite removes a site that has no occupied seats.
func (s *Service) DeleteSite(ctx context.Context, siteID int64) error {
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return err
	}
	if site.CurrentCount > 0 {
		return dErrors.New(dErrors.CodePrecondition, "a site with registrations cannot be deleted")
	}
	if err := s.store.DeleteSite(ctx, siteID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete exam site")
	}
	return nil
}

// ClaimSeat reserves one seat on a site and bumps the exam counter.
// It is called from the registration flow once the submission passes
// validation. A full site is reported as a precondition failure.
func (s *Service) ClaimSeat(ctx context.Context, examID, siteID int64) error {
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return err
	}
	if site.ExamID != examID {
		return dErrors.New(dErrors.CodeBadRequest, "site does not belong to this exam")
	}
	if !site.Selectable() {
		return dErrors.New(dErrors.CodePrecondition, "the selected site is full")
	}

	site.CurrentCount++
	if _, err := s.store.UpdateSite(ctx, site); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve seat")
	}

	e, err := s.get(ctx, examID)
	if err != nil {
		return err
	}
	e.CurrentCount++
	if _, err := s.store.Update(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exam count")
	}
	return nil
}

// ReleaseSeat undoes a claimed seat when a registration is canceled.
func (s *Service) ReleaseSeat(ctx context.Context, examID, siteID int64) error {
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return err
	}
	if site.CurrentCount > 0 {
		site.CurrentCount--
		if _, err := s.store.UpdateSite(ctx, site); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release seat")
		}
	}

	e, err := s.get(ctx, examID)
	if err != nil {
		return err
	}
	if e.CurrentCount > 0 {
		e.CurrentCount--
		if _, err := s.store.Update(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exam count")
		}
	}
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute exam statistics")
	}
	return st, nil
}

func (s *Service) get(ctx context.Context, id int64) (*Exam, error) {
	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exam")
	}
	if e == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "exam not found")
	}
	return e, nil
}

func (s *Service) getSite(ctx context.Context, id int64) (*Site, error) {
	site, err := s.store.FindSite(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exam site")
	}
	if site == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "exam site not found")
	}
	return site, nil
}

func (s *Service) transition(ctx context.Context, id int64, from, to Status, msg string) (*Exam, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != from {
		return nil, dErrors.New(dErrors.CodePrecondition, msg)
	}
	return s.setStatus(ctx, e, to)
}

func (s *Service) setStatus(ctx context.Context, e *Exam, to Status) (*Exam, error) {
	e.Status = to
	updated, err := s.store.Update(ctx, e)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exam status")
	}
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "exam not found")
	}
	s.logger.InfoContext(ctx, "exam status changed",
		slog.Int64("exam_id", e.ID),
		slog.Int("status", int(to)))
	return updated, nil
}

func clampPage(current, size int) (int, int) {
	if current < 1 {
		current = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return current, size
}
