package user

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"examreg/internal/audit"
	"examreg/internal/auth"
	"examreg/internal/guard"
	"examreg/internal/platform/metrics"
	dErrors "examreg/pkg/domain-errors"
)

// Service owns account rules: registration uniqueness, credential checks,
// login lockout, and profile updates. It also implements the guard's
// Authenticator and Verifier.
type Service struct {
	store       Store
	tokens      *auth.TokenProvider
	publisher   audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxFailures int
	lockFor     time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLockout(maxFailures int, lockFor time.Duration) Option {
	return func(s *Service) {
		s.maxFailures = maxFailures
		s.lockFor = lockFor
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, tokens *auth.TokenProvider, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		tokens:      tokens,
		publisher:   audit.Nop(),
		logger:      logger,
		maxFailures: 5,
		lockFor:     30 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a candidate account. Username, phone, and id card must
// all be unused.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if existing, err := s.store.FindByUsername(ctx, req.Username); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	} else if existing != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
	}

	if req.Phone != "" {
		if existing, err := s.store.FindByPhone(ctx, req.Phone); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check phone")
		} else if existing != nil {
			return nil, dErrors.New(dErrors.CodeConflict, "phone number already registered")
		}
	}
	if req.IDCard != "" {
		if existing, err := s.store.FindByIDCard(ctx, req.IDCard); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check id card")
		} else if existing != nil {
			return nil, dErrors.New(dErrors.CodeConflict, "id card already registered")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	u := &User{
		Username: req.Username,
		Password: string(hash),
		RealName: req.RealName,
		IDCard:   req.IDCard,
		Phone:    req.Phone,
		Email:    req.Email,
		Role:     guard.RoleUser,
		Status:   StatusActive,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	s.publisher.Emit(ctx, audit.NewEvent(u.ID, audit.ActionUserRegistered, map[string]any{
		"username": u.Username,
	}))
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate checks credentials and issues a bearer token. Failed
// attempts count toward lockout; the caller never learns whether the
// username or the password was wrong.
func (s *Service) Authenticate(ctx context.Context, username, password string) (guard.Identity, string, error) {
	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return guard.Identity{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if u == nil {
		s.countFailure(ctx, nil, username)
		return guard.Identity{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}

	if u.Status != StatusActive {
		return guard.Identity{}, "", dErrors.New(dErrors.CodeForbidden, "account is disabled")
	}
	if u.Locked(s.now()) {
		return guard.Identity{}, "", dErrors.New(dErrors.CodeForbidden, "account is locked, try again later")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		s.countFailure(ctx, u, username)
		return guard.Identity{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}

	// Success resets the failure counter and records the login.
	now := s.now()
	u.LoginFailures = 0
	u.LockUntil = nil
	u.LastLoginAt = &now
	if err := s.store.Update(ctx, u); err != nil {
		s.logger.WarnContext(ctx, "failed to record login", "user_id", u.ID, "error", err)
	}

	token, err := s.tokens.Generate(u.ID, u.Username, string(u.Role))
	if err != nil {
		return guard.Identity{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.publisher.Emit(ctx, audit.NewEvent(u.ID, audit.ActionUserLogin, map[string]any{
		"username": u.Username,
	}))
	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID, "username", u.Username)
	return u.Identity(), token, nil
}

func (s *Service) countFailure(ctx context.Context, u *User, username string) {
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	s.publisher.Emit(ctx, audit.NewEvent(0, audit.ActionUserLoginFailed, map[string]any{
		"username": username,
	}))
	if u == nil {
		return
	}

	u.LoginFailures++
	if u.LoginFailures >= s.maxFailures {
		until := s.now().Add(s.lockFor)
		u.LockUntil = &until
		u.LoginFailures = 0
		s.logger.WarnContext(ctx, "account locked after repeated failures",
			"user_id", u.ID,
			"until", until,
		)
	}
	if err := s.store.Update(ctx, u); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "user_id", u.ID, "error", err)
	}
}

// Verify revalidates a bearer token against the current account record,
// so a disabled account or stale token fails even if the signature is
// still good.
func (s *Service) Verify(ctx context.Context, credential string) (*guard.Identity, error) {
	claims, err := s.tokens.ValidateToken(credential)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	u, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if u == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
	}
	if u.Status != StatusActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is disabled")
	}

	identity := u.Identity()
	return &identity, nil
}

// Get returns the account record for a user ID.
func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if u == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return u, nil
}

// UpdateProfile replaces the profile fields. Username, password, role,
// and status are not touched here.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req *UpdateRequest) (*User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Phone != "" && req.Phone != u.Phone {
		if existing, err := s.store.FindByPhone(ctx, req.Phone); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check phone")
		} else if existing != nil && existing.ID != userID {
			return nil, dErrors.New(dErrors.CodeConflict, "phone number already in use")
		}
	}
	if req.IDCard != "" && req.IDCard != u.IDCard {
		if existing, err := s.store.FindByIDCard(ctx, req.IDCard); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check id card")
		} else if existing != nil && existing.ID != userID {
			return nil, dErrors.New(dErrors.CodeConflict, "id card already in use")
		}
	}

	u.RealName = req.RealName
	u.IDCard = req.IDCard
	u.Phone = req.Phone
	u.Email = req.Email
	u.Gender = req.Gender
	u.Education = req.Education
	u.Address = req.Address

	if err := s.store.Update(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return u, nil
}

// ChangePassword swaps the password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)) != nil {
		return dErrors.New(dErrors.CodeBadRequest, "old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u.Password = string(hash)

	if err := s.store.Update(ctx, u); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}
	return nil
}

// Stats returns account counts for the statistics dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate user stats")
	}
	return stats, nil
}
