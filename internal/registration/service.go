package registration

import (
	"context"
	"log/slog"
	"time"

	"examreg/internal/audit"
	"examreg/internal/exam"
	"examreg/internal/platform/metrics"
	"examreg/internal/user"
	dErrors "examreg/pkg/domain-errors"
)

// ExamGateway is the slice of the exam service the registration flow
// needs. *exam.Service satisfies it.
type ExamGateway interface {
	Get(ctx context.Context, id int64) (*exam.Exam, error)
	Site(ctx context.Context, id int64) (*exam.Site, error)
	ClaimSeat(ctx context.Context, examID, siteID int64) error
	ReleaseSeat(ctx context.Context, examID, siteID int64) error
}

// UserDirectory resolves candidate records for list decoration.
// *user.Service satisfies it.
type UserDirectory interface {
	Get(ctx context.Context, userID int64) (*user.User, error)
}

// OrderCreator opens a payment order for an approved registration. The
// payment service satisfies it; the indirection keeps this package from
// importing payment.
type OrderCreator interface {
	CreateForRegistration(ctx context.Context, registrationID int64) error
}

// Service owns the registration lifecycle: submission, audit, and
// cancellation.
type Service struct {
	store     Store
	exams     ExamGateway
	users     UserDirectory
	orders    OrderCreator
	publisher audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithOrderCreator(oc OrderCreator) Option {
	return func(s *Service) { s.orders = oc }
}

// SetOrderCreator wires the payment service in after construction; the
// two services reference each other, so one side must be set late.
func (s *Service) SetOrderCreator(oc OrderCreator) { s.orders = oc }

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, exams ExamGateway, users UserDirectory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		exams:     exams,
		users:     users,
		publisher: audit.Nop(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a registration for the calling candidate. The exam must
// be accepting registrations, the candidate must not already hold one
// for this exam, and the site must have a free seat. The claimed seat
// is released again if the insert itself fails.
func (s *Service) Submit(ctx context.Context, userID int64, req *SubmitRequest) (*Registration, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.exams.Get(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	if !e.OpenForRegistration(s.now()) {
		return nil, dErrors.New(dErrors.CodePrecondition, "the exam is not accepting registrations")
	}

	existing, err := s.store.FindByUserAndExam(ctx, userID, req.ExamID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing registration")
	}
	if existing != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "you are already registered for this exam")
	}

	if err := s.exams.ClaimSeat(ctx, req.ExamID, req.SiteID); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, &Registration{
		UserID:        userID,
		ExamID:        req.ExamID,
		SiteID:        req.SiteID,
		IDCard:        req.IDCard,
		Phone:         req.Phone,
		Subject:       req.Subject,
		Materials:     req.Materials,
		AuditStatus:   AuditPending,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     s.now(),
	})
	if err != nil {
		if relErr := s.exams.ReleaseSeat(ctx, req.ExamID, req.SiteID); relErr != nil {
			s.logger.ErrorContext(ctx, "failed to release seat after insert failure",
				"exam_id", req.ExamID, "site_id", req.SiteID, "error", relErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	if s.metrics != nil {
		s.metrics.RegistrationsSubmitted.Inc()
	}
	s.publisher.Emit(ctx, audit.NewEvent(userID, audit.ActionRegistrationSubmitted, map[string]any{
		"registration_id": created.ID,
		"exam_id":         created.ExamID,
		"site_id":         created.SiteID,
	}))
	s.logger.InfoContext(ctx, "registration submitted",
		"registration_id", created.ID, "user_id", userID, "exam_id", req.ExamID)
	return created, nil
}

// Audit records the admin decision on a pending registration. Approval
// opens a payment order; if that fails the approval still stands and
// the order can be created later when the candidate goes to pay.
func (s *Service) Audit(ctx context.Context, auditorID, registrationID int64, req *AuditRequest) (*Registration, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r, err := s.get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if r.AuditStatus != AuditPending {
		return nil, dErrors.New(dErrors.CodePrecondition, "this registration has already been audited")
	}

	now := s.now()
	if req.Approved {
		r.AuditStatus = AuditApproved
	} else {
		r.AuditStatus = AuditRejected
	}
	r.AuditRemark = req.Remark
	r.AuditBy = auditorID
	r.AuditTime = &now

	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit decision")
	}
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}

	outcome := "rejected"
	if req.Approved {
		outcome = "approved"
		if s.orders != nil {
			if err := s.orders.CreateForRegistration(ctx, updated.ID); err != nil {
				s.logger.WarnContext(ctx, "failed to open payment order after approval",
					"registration_id", updated.ID, "error", err)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.RegistrationsAudited.WithLabelValues(outcome).Inc()
	}
	s.publisher.Emit(ctx, audit.NewEvent(auditorID, audit.ActionRegistrationAudited, map[string]any{
		"registration_id": updated.ID,
		"outcome":         outcome,
	}))
	s.logger.InfoContext(ctx, "registration audited",
		"registration_id", updated.ID, "outcome", outcome, "auditor_id", auditorID)
	return updated, nil
}

// Cancel withdraws a registration. Only the owner may cancel, and only
// while the audit is still pending. The seat goes back to the site.
func (s *Service) Cancel(ctx context.Context, userID, registrationID int64) error {
	r, err := s.get(ctx, registrationID)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return dErrors.New(dErrors.CodeForbidden, "this registration belongs to another candidate")
	}
	if r.AuditStatus != AuditPending {
		return dErrors.New(dErrors.CodePrecondition, "an audited registration cannot be canceled")
	}

	if err := s.store.Delete(ctx, registrationID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel registration")
	}
	if err := s.exams.ReleaseSeat(ctx, r.ExamID, r.SiteID); err != nil {
		s.logger.WarnContext(ctx, "failed to release seat after cancellation",
			"exam_id", r.ExamID, "site_id", r.SiteID, "error", err)
	}

	s.publisher.Emit(ctx, audit.NewEvent(userID, audit.ActionRegistrationCanceled, map[string]any{
		"registration_id": registrationID,
		"exam_id":         r.ExamID,
	}))
	s.logger.InfoContext(ctx, "registration canceled",
		"registration_id", registrationID, "user_id", userID)
	return nil
}

// Get returns one registration without authorization checks; callers
// enforce ownership where it matters.
func (s *Service) Get(ctx context.Context, id int64) (*Registration, error) {
	return s.get(ctx, id)
}

// MarkPaid records a completed payment and issues the admission
// ticket. The payment service calls this after the order settles.
func (s *Service) MarkPaid(ctx context.Context, id int64, ticketNo string) error {
	r, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if r.AuditStatus != AuditApproved {
		return dErrors.New(dErrors.CodePrecondition, "only approved registrations can be paid")
	}
	if r.PaymentStatus == PaymentPaid {
		return dErrors.New(dErrors.CodeConflict, "this registration is already paid")
	}

	r.PaymentStatus = PaymentPaid
	r.AdmissionTicketNo = ticketNo
	if _, err := s.store.Update(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}
	return nil
}

// MarkRefunded reverses a paid registration after a refund settles.
// The admission ticket is withdrawn with the payment.
func (s *Service) MarkRefunded(ctx context.Context, id int64) error {
	r, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if r.PaymentStatus != PaymentPaid {
		return dErrors.New(dErrors.CodePrecondition, "only a paid registration can be refunded")
	}

	r.PaymentStatus = PaymentRefunded
	r.AdmissionTicketNo = ""
	if _, err := s.store.Update(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record refund")
	}
	return nil
}

// Detail returns one registration decorated for display. Candidates
// may only see their own.
func (s *Service) Detail(ctx context.Context, callerID int64, admin bool, id int64) (*Detail, error) {
	r, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && r.UserID != callerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this registration belongs to another candidate")
	}
	return s.decorate(ctx, r), nil
}

// My lists the calling candidate's registrations.
func (s *Service) My(ctx context.Context, userID int64, current, size int) (*Page, error) {
	return s.list(ctx, Filter{UserID: userID}, current, size)
}

// Pending lists registrations waiting for an audit decision.
func (s *Service) Pending(ctx context.Context, current, size int) (*Page, error) {
	return s.list(ctx, Filter{AuditStatus: AuditPending}, current, size)
}

// List pages registrations with admin filters.
func (s *Service) List(ctx context.Context, f Filter, current, size int) (*Page, error) {
	return s.list(ctx, f, current, size)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute registration statistics")
	}
	return st, nil
}

// Trend returns per-day submission counts for the last days days,
// today included.
func (s *Service) Trend(ctx context.Context, days int) ([]*TrendPoint, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	from := s.now().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	points, err := s.store.Trend(ctx, from, days)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute registration trend")
	}
	return points, nil
}

func (s *Service) get(ctx context.Context, id int64) (*Registration, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	if r == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return r, nil
}

func (s *Service) list(ctx context.Context, f Filter, current, size int) (*Page, error) {
	if current < 1 {
		current = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	rows, total, err := s.store.List(ctx, f, current, size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}

	details := make([]*Detail, 0, len(rows))
	for _, r := range rows {
		details = append(details, s.decorate(ctx, r))
	}
	return &Page{Records: details, Total: total, Current: current, Size: size}, nil
}

// decorate fills in the display fields. Lookup failures degrade to a
// bare registration rather than failing the whole listing.
func (s *Service) decorate(ctx context.Context, r *Registration) *Detail {
	d := &Detail{Registration: *r}

	if e, err := s.exams.Get(ctx, r.ExamID); err == nil {
		d.ExamName = e.Name
		d.ExamDate = e.Date
		d.ExamTime = e.TimeSlot
		d.Fee = e.Fee
	} else {
		s.logger.WarnContext(ctx, "failed to resolve exam for registration",
			"registration_id", r.ID, "exam_id", r.ExamID, "error", err)
	}

	if site, err := s.exams.Site(ctx, r.SiteID); err == nil {
		d.SiteName = site.Name
		d.SiteAddress = site.Address
	} else {
		s.logger.WarnContext(ctx, "failed to resolve site for registration",
			"registration_id", r.ID, "site_id", r.SiteID, "error", err)
	}

	if u, err := s.users.Get(ctx, r.UserID); err == nil {
		d.RealName = u.RealName
		d.Username = u.Username
	} else {
		s.logger.WarnContext(ctx, "failed to resolve candidate for registration",
			"registration_id", r.ID, "user_id", r.UserID, "error", err)
	}
	return d
}
