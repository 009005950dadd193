package user

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/internal/audit"
	"examreg/internal/auth"
	dErrors "examreg/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	ctx     context.Context
	store   *MemoryStore
	sink    *audit.MemorySink
	now     time.Time
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.sink = audit.NewMemorySink()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	publisher := audit.NewAsyncPublisher(s.sink, slog.Default(), 16)
	s.T().Cleanup(func() { publisher.Close() })

	s.service = NewService(
		s.store,
		auth.NewTokenProvider("test-signing-key", time.Hour),
		slog.Default(),
		WithAuditPublisher(publisher),
		WithLockout(3, 30*time.Minute),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) register(username string) *User {
	u, err := s.service.Register(s.ctx, &RegisterRequest{
		Username: username,
		Password: "secret123",
		RealName: "Zhang San",
		Phone:    "13812345678",
		IDCard:   "110101199001011234",
	})
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates active candidate account", func() {
		u := s.register("candidate")

		s.NotZero(u.ID)
		s.Equal(StatusActive, u.Status)
		s.NotEqual("secret123", u.Password, "password must be stored hashed")
	})

	s.Run("rejects duplicate username", func() {
		_, err := s.service.Register(s.ctx, &RegisterRequest{
			Username: "candidate",
			Password: "another456",
		})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("rejects duplicate phone", func() {
		_, err := s.service.Register(s.ctx, &RegisterRequest{
			Username: "someone-else",
			Password: "another456",
			Phone:    "13812345678",
		})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("rejects duplicate id card", func() {
		_, err := s.service.Register(s.ctx, &RegisterRequest{
			Username: "third-person",
			Password: "another456",
			IDCard:   "110101199001011234",
		})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestAuthenticate() {
	u := s.register("candidate")

	s.Run("issues token on valid credentials", func() {
		identity, token, err := s.service.Authenticate(s.ctx, "candidate", "secret123")

		s.Require().NoError(err)
		s.Equal(u.ID, identity.ID)
		s.NotEmpty(token)
	})

	s.Run("records last login", func() {
		stored, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.LastLoginAt)
		s.Equal(s.now, *stored.LastLoginAt)
	})

	s.Run("same message for unknown user and wrong password", func() {
		_, _, errUser := s.service.Authenticate(s.ctx, "nobody", "secret123")
		_, _, errPass := s.service.Authenticate(s.ctx, "candidate", "wrong")

		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(errUser))
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(errPass))
		s.Equal(dErrors.MessageOf(errUser), dErrors.MessageOf(errPass))
	})

	s.Run("refuses disabled account", func() {
		stored, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		stored.Status = StatusDisabled
		s.Require().NoError(s.store.Update(s.ctx, stored))

		_, _, err = s.service.Authenticate(s.ctx, "candidate", "secret123")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestAuthenticate_Lockout() {
	s.register("candidate")

	for range 3 {
		_, _, err := s.service.Authenticate(s.ctx, "candidate", "wrong")
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	}

	// Third failure crosses the threshold and locks the account, so
	// even the right password is refused now.
	_, _, err := s.service.Authenticate(s.ctx, "candidate", "secret123")
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

	// The lock expires on its own.
	s.now = s.now.Add(31 * time.Minute)
	_, _, err = s.service.Authenticate(s.ctx, "candidate", "secret123")
	s.NoError(err)
}

func (s *ServiceSuite) TestVerify() {
	u := s.register("candidate")
	_, token, err := s.service.Authenticate(s.ctx, "candidate", "secret123")
	s.Require().NoError(err)

	s.Run("accepts a live token", func() {
		identity, err := s.service.Verify(s.ctx, token)
		s.Require().NoError(err)
		s.Equal(u.ID, identity.ID)
	})

	s.Run("rejects garbage", func() {
		_, err := s.service.Verify(s.ctx, "not-a-token")
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	s.Run("rejects token for a disabled account", func() {
		stored, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		stored.Status = StatusDisabled
		s.Require().NoError(s.store.Update(s.ctx, stored))

		_, err = s.service.Verify(s.ctx, token)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestChangePassword() {
	u := s.register("candidate")

	err := s.service.ChangePassword(s.ctx, u.ID, "wrong", "newsecret")
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	s.Require().NoError(s.service.ChangePassword(s.ctx, u.ID, "secret123", "newsecret"))

	_, _, err = s.service.Authenticate(s.ctx, "candidate", "secret123")
	s.Error(err)
	_, _, err = s.service.Authenticate(s.ctx, "candidate", "newsecret")
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdateProfile() {
	u := s.register("candidate")
	other := s.service
	_, err := other.Register(s.ctx, &RegisterRequest{
		Username: "neighbor",
		Password: "secret123",
		Phone:    "13900000000",
	})
	s.Require().NoError(err)

	s.Run("rejects phone already held by another account", func() {
		_, err := s.service.UpdateProfile(s.ctx, u.ID, &UpdateRequest{
			RealName: "Zhang San",
			Phone:    "13900000000",
		})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("updates profile fields", func() {
		updated, err := s.service.UpdateProfile(s.ctx, u.ID, &UpdateRequest{
			RealName: "Zhang Si",
			Phone:    "13812345678",
			Email:    "zhangsi@example.com",
		})
		s.Require().NoError(err)
		s.Equal("Zhang Si", updated.RealName)
		s.Equal("zhangsi@example.com", updated.Email)
	})
}
