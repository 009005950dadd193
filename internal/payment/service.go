package payment

import (
	"context"
	"log/slog"
	"time"

	"examreg/internal/audit"
	"examreg/internal/exam"
	"examreg/internal/platform/metrics"
	"examreg/internal/registration"
	dErrors "examreg/pkg/domain-errors"
)

// RegistrationGateway is the slice of the registration service the
// payment flow needs. *registration.Service satisfies it.
type RegistrationGateway interface {
	Get(ctx context.Context, id int64) (*registration.Registration, error)
	MarkPaid(ctx context.Context, id int64, ticketNo string) error
	MarkRefunded(ctx context.Context, id int64) error
}

// ExamGateway resolves the fee for an order. *exam.Service satisfies it.
type ExamGateway interface {
	Get(ctx context.Context, id int64) (*exam.Exam, error)
}

// Service owns payment orders: creation after approval, settlement,
// refunds, and the expiry sweep.
type Service struct {
	store         Store
	registrations RegistrationGateway
	exams         ExamGateway
	publisher     audit.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	orderTTL      time.Duration
	now           func() time.Time
}

type Option func(*Service)

func WithOrderTTL(ttl time.Duration) Option {
	return func(s *Service) { s.orderTTL = ttl }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, registrations RegistrationGateway, exams ExamGateway, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		registrations: registrations,
		exams:         exams,
		publisher:     audit.Nop(),
		logger:        logger,
		orderTTL:      30 * time.Minute,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateForRegistration opens a payment order for an approved
// registration. It is idempotent: an existing order for the
// registration is left alone.
func (s *Service) CreateForRegistration(ctx context.Context, registrationID int64) error {
	_, err := s.createOrder(ctx, registrationID)
	return err
}

// OrderForRegistration returns the candidate's order for a
// registration, opening one if the audit hook did not. Only the owner
// may ask.
func (s *Service) OrderForRegistration(ctx context.Context, userID, registrationID int64) (*Order, error) {
	r, err := s.registrations.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this registration belongs to another candidate")
	}
	return s.createOrder(ctx, registrationID)
}

func (s *Service) createOrder(ctx context.Context, registrationID int64) (*Order, error) {
	r, err := s.registrations.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if r.AuditStatus != registration.AuditApproved {
		return nil, dErrors.New(dErrors.CodePrecondition, "only an approved registration can be paid")
	}
	if r.PaymentStatus != registration.PaymentUnpaid {
		return nil, dErrors.New(dErrors.CodePrecondition, "this registration is not awaiting payment")
	}

	existing, err := s.store.FindByRegistration(ctx, registrationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing order")
	}
	if existing != nil && existing.Active() {
		return existing, nil
	}

	e, err := s.exams.Get(ctx, r.ExamID)
	if err != nil {
		return nil, err
	}
	if e.Fee <= 0 {
		return nil, dErrors.New(dErrors.CodePrecondition, "the exam has no payable fee")
	}

	now := s.now()
	created, err := s.store.Create(ctx, &Order{
		OrderNo:        NewOrderNo(now),
		RegistrationID: registrationID,
		UserID:         r.UserID,
		Amount:         e.Fee,
		Status:         OrderPending,
		ExpireTime:     now.Add(s.orderTTL),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payment order")
	}

	s.publisher.Emit(ctx, audit.NewEvent(r.UserID, audit.ActionOrderCreated, map[string]any{
		"order_id":        created.ID,
		"order_no":        created.OrderNo,
		"registration_id": registrationID,
		"amount":          created.Amount,
	}))
	s.logger.InfoContext(ctx, "payment order created",
		"order_id", created.ID, "order_no", created.OrderNo, "amount", created.Amount)
	return created, nil
}

// Pay settles a pending order. An order found expired here is closed
// on the spot and the payment refused.
func (s *Service) Pay(ctx context.Context, userID int64, orderNo, method string) (*Order, error) {
	o, err := s.getByNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this order belongs to another candidate")
	}
	if o.Status != OrderPending {
		return nil, dErrors.New(dErrors.CodePrecondition, "this order is not awaiting payment")
	}

	now := s.now()
	if o.Expired(now) {
		o.Status = OrderClosed
		if _, err := s.store.Update(ctx, o); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close expired order")
		}
		if s.metrics != nil {
			s.metrics.OrdersClosed.Inc()
		}
		return nil, dErrors.New(dErrors.CodePrecondition, "this order has expired, register payment again")
	}

	if method == "" {
		method = "mock"
	}
	o.Status = OrderPaid
	o.PaymentMethod = method
	o.TransactionID = NewTransactionID(now)
	o.PayTime = &now

	updated, err := s.store.Update(ctx, o)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}

	r, err := s.registrations.Get(ctx, o.RegistrationID)
	if err != nil {
		return nil, err
	}
	ticket := NewTicketNo(r.ExamID, now)
	if err := s.registrations.MarkPaid(ctx, o.RegistrationID, ticket); err != nil {
		s.logger.ErrorContext(ctx, "order paid but registration not updated, needs reconciliation",
			"order_no", o.OrderNo, "registration_id", o.RegistrationID, "error", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsCompleted.Inc()
		s.metrics.PaymentAmount.Add(o.Amount)
	}
	s.publisher.Emit(ctx, audit.NewEvent(userID, audit.ActionOrderPaid, map[string]any{
		"order_id":       o.ID,
		"order_no":       o.OrderNo,
		"amount":         o.Amount,
		"transaction_id": o.TransactionID,
	}))
	s.logger.InfoContext(ctx, "payment completed",
		"order_id", o.ID, "order_no", o.OrderNo, "amount", o.Amount)
	return updated, nil
}

// Refund reverses a paid order. Admin only; routing enforces that.
func (s *Service) Refund(ctx context.Context, adminID int64, orderNo string) (*Order, error) {
	o, err := s.getByNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if o.Status != OrderPaid {
		return nil, dErrors.New(dErrors.CodePrecondition, "only a paid order can be refunded")
	}

	now := s.now()
	o.Status = OrderRefunded
	o.RefundTime = &now

	updated, err := s.store.Update(ctx, o)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record refund")
	}
	if err := s.registrations.MarkRefunded(ctx, o.RegistrationID); err != nil {
		return nil, err
	}

	s.publisher.Emit(ctx, audit.NewEvent(adminID, audit.ActionOrderRefunded, map[string]any{
		"order_id": o.ID,
		"order_no": o.OrderNo,
		"amount":   o.Amount,
	}))
	s.logger.InfoContext(ctx, "order refunded",
		"order_id", o.ID, "order_no", o.OrderNo, "admin_id", adminID)
	return updated, nil
}

// CloseExpired sweeps pending orders whose expiry has passed and
// returns how many were closed. Meant to run on a ticker.
func (s *Service) CloseExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, s.now())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired orders")
	}

	closed := 0
	for _, o := range expired {
		o.Status = OrderClosed
		if _, err := s.store.Update(ctx, o); err != nil {
			s.logger.WarnContext(ctx, "failed to close expired order",
				"order_id", o.ID, "error", err)
			continue
		}
		closed++
		if s.metrics != nil {
			s.metrics.OrdersClosed.Inc()
		}
		s.publisher.Emit(ctx, audit.NewEvent(o.UserID, audit.ActionOrderClosed, map[string]any{
			"order_id": o.ID,
			"order_no": o.OrderNo,
		}))
	}
	if closed > 0 {
		s.logger.InfoContext(ctx, "closed expired payment orders", "count", closed)
	}
	return closed, nil
}

// Get returns one order by number. Candidates see only their own;
// admins see all.
func (s *Service) Get(ctx context.Context, callerID int64, admin bool, orderNo string) (*Order, error) {
	o, err := s.getByNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if !admin && o.UserID != callerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this order belongs to another candidate")
	}
	return o, nil
}

// ByRegistration returns the order attached to a registration, if any.
func (s *Service) ByRegistration(ctx context.Context, callerID int64, admin bool, registrationID int64) (*Order, error) {
	o, err := s.store.FindByRegistration(ctx, registrationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load order")
	}
	if o == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no order for this registration")
	}
	if !admin && o.UserID != callerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this order belongs to another candidate")
	}
	return o, nil
}

// PaidTrend returns per-day settled payment counts and amounts over
// the trailing window, today included.
func (s *Service) PaidTrend(ctx context.Context, days int) ([]*TrendPoint, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	from := s.now().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	points, err := s.store.PaidTrend(ctx, from, days)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute payment trend")
	}
	return points, nil
}

// My lists the calling candidate's orders.
func (s *Service) My(ctx context.Context, userID int64, current, size int) (*Page, error) {
	return s.list(ctx, Filter{UserID: userID}, current, size)
}

// List pages orders with admin filters.
func (s *Service) List(ctx context.Context, f Filter, current, size int) (*Page, error) {
	return s.list(ctx, f, current, size)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute order statistics")
	}
	return st, nil
}

func (s *Service) getByNo(ctx context.Context, orderNo string) (*Order, error) {
	o, err := s.store.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load order")
	}
	if o == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "order not found")
	}
	return o, nil
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
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list orders")
	}
	return &Page{Records: rows, Total: total, Current: current, Size: size}, nil
}
