package notice

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "examreg/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	ctx     context.Context
	now     time.Time
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.service = NewService(NewMemoryStore(), slog.Default(),
		WithClock(func() time.Time { return s.now }))
}

func (s *ServiceSuite) create(title string) *Notice {
	n, err := s.service.Create(s.ctx, 1, &SaveRequest{
		Title:   title,
		Content: "body",
	})
	s.Require().NoError(err)
	return n
}

func (s *ServiceSuite) TestPublishAndRead() {
	n := s.create("Exam schedule")

	s.Run("a draft is invisible to candidates", func() {
		_, err := s.service.Read(s.ctx, n.ID)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("publishing stamps the time", func() {
		published, err := s.service.Publish(s.ctx, n.ID)
		s.Require().NoError(err)
		s.Equal(StatusPublished, published.Status)
		s.Require().NotNil(published.PublishTime)
		s.Equal(s.now, *published.PublishTime)
	})

	s.Run("reading counts the view", func() {
		first, err := s.service.Read(s.ctx, n.ID)
		s.Require().NoError(err)
		s.Equal(int64(1), first.ViewCount)

		second, err := s.service.Read(s.ctx, n.ID)
		s.Require().NoError(err)
		s.Equal(int64(2), second.ViewCount)
	})

	s.Run("retract hides it again", func() {
		retracted, err := s.service.Retract(s.ctx, n.ID)
		s.Require().NoError(err)
		s.Equal(StatusDraft, retracted.Status)
		s.Nil(retracted.PublishTime)

		_, err = s.service.Read(s.ctx, n.ID)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestPublishedListing() {
	plain := s.create("Plain notice")
	pinned, err := s.service.Create(s.ctx, 1, &SaveRequest{
		Title: "Pinned notice", Content: "body", Top: true,
	})
	s.Require().NoError(err)
	draft := s.create("Still a draft")
	_ = draft

	_, err = s.service.Publish(s.ctx, plain.ID)
	s.Require().NoError(err)
	_, err = s.service.Publish(s.ctx, pinned.ID)
	s.Require().NoError(err)

	page, err := s.service.Published(s.ctx, "", 1, 10)
	s.Require().NoError(err)
	s.Require().Equal(int64(2), page.Total)
	s.Equal("Pinned notice", page.Records[0].Title, "pinned notices sort first")
}

func (s *ServiceSuite) TestValidation() {
	_, err := s.service.Create(s.ctx, 1, &SaveRequest{Content: "body"})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	_, err = s.service.Create(s.ctx, 1, &SaveRequest{Title: "no body"})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
}

func (s *ServiceSuite) TestDelete() {
	n := s.create("Doomed")
	s.Require().NoError(s.service.Delete(s.ctx, n.ID))

	err := s.service.Delete(s.ctx, n.ID)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}
