package statistics

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"examreg/internal/exam"
	"examreg/internal/payment"
	"examreg/internal/registration"
	"examreg/internal/user"
	dErrors "examreg/pkg/domain-errors"
)

// UserSource, ExamSource, RegistrationSource, and OrderSource slice the
// domain services down to what the dashboard reads. The concrete
// services satisfy them.
type UserSource interface {
	Stats(ctx context.Context) (user.Stats, error)
}

type ExamSource interface {
	Stats(ctx context.Context) (*exam.Stats, error)
}

type RegistrationSource interface {
	Stats(ctx context.Context) (*registration.Stats, error)
	Trend(ctx context.Context, days int) ([]*registration.TrendPoint, error)
}

type OrderSource interface {
	Stats(ctx context.Context) (*payment.Stats, error)
	PaidTrend(ctx context.Context, days int) ([]*payment.TrendPoint, error)
}

// Overview is the admin dashboard payload.
type Overview struct {
	Users         user.Stats                 `json:"users"`
	Exams         *exam.Stats                `json:"exams"`
	Registrations *registration.Stats        `json:"registrations"`
	Orders        *payment.Stats             `json:"orders"`
	Trend         []*registration.TrendPoint `json:"registrationTrend"`
}

// Service assembles the dashboard from the domain services.
type Service struct {
	users         UserSource
	exams         ExamSource
	registrations RegistrationSource
	orders        OrderSource
	logger        *slog.Logger
}

func NewService(users UserSource, exams ExamSource, registrations RegistrationSource, orders OrderSource, logger *slog.Logger) *Service {
	return &Service{
		users:         users,
		exams:         exams,
		registrations: registrations,
		orders:        orders,
		logger:        logger,
	}
}

// Overview gathers every corner of the dashboard concurrently; one
// failing source fails the whole call.
func (s *Service) Overview(ctx context.Context, trendDays int) (*Overview, error) {
	var out Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.users.Stats(gctx)
		if err != nil {
			return err
		}
		out.Users = st
		return nil
	})
	g.Go(func() error {
		st, err := s.exams.Stats(gctx)
		if err != nil {
			return err
		}
		out.Exams = st
		return nil
	})
	g.Go(func() error {
		st, err := s.registrations.Stats(gctx)
		if err != nil {
			return err
		}
		out.Registrations = st
		return nil
	})
	g.Go(func() error {
		st, err := s.orders.Stats(gctx)
		if err != nil {
			return err
		}
		out.Orders = st
		return nil
	})
	g.Go(func() error {
		points, err := s.registrations.Trend(gctx, trendDays)
		if err != nil {
			return err
		}
		out.Trend = points
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assemble dashboard")
	}
	return &out, nil
}

// UserStats, ExamStats, RegistrationStats, and OrderStats expose each
// corner of the dashboard on its own, for panels that refresh
// independently.
func (s *Service) UserStats(ctx context.Context) (user.Stats, error) {
	return s.users.Stats(ctx)
}

func (s *Service) ExamStats(ctx context.Context) (*exam.Stats, error) {
	return s.exams.Stats(ctx)
}

func (s *Service) RegistrationStats(ctx context.Context) (*registration.Stats, error) {
	return s.registrations.Stats(ctx)
}

func (s *Service) OrderStats(ctx context.Context) (*payment.Stats, error) {
	return s.orders.Stats(ctx)
}

// RegistrationTrend counts submissions per day over the window.
func (s *Service) RegistrationTrend(ctx context.Context, days int) ([]*registration.TrendPoint, error) {
	return s.registrations.Trend(ctx, days)
}

// PaymentTrend sums settled orders per day over the window.
func (s *Service) PaymentTrend(ctx context.Context, days int) ([]*payment.TrendPoint, error) {
	return s.orders.PaidTrend(ctx, days)
}
