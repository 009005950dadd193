package exam

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
	store   *MemoryStore
	now     time.Time
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.service = NewService(s.store, slog.Default())
}

func (s *ServiceSuite) createExam(name string) *Exam {
	e, err := s.service.Create(s.ctx, 1, &CreateRequest{
		Name:              name,
		Type:              "written",
		Date:              s.now.AddDate(0, 2, 0),
		TimeSlot:          "09:00-11:00",
		RegistrationStart: s.now.AddDate(0, 0, -7),
		RegistrationEnd:   s.now.AddDate(0, 1, 0),
		Fee:               150,
	})
	s.Require().NoError(err)
	return e
}

func (s *ServiceSuite) TestCreate() {
	s.Run("creates a draft exam", func() {
		e := s.createExam("Spring Certification")
		s.Equal(StatusDraft, e.Status)
		s.NotZero(e.ID)
	})

	s.Run("rejects duplicate name", func() {
		_, err := s.service.Create(s.ctx, 1, &CreateRequest{
			Name:              "Spring Certification",
			Date:              s.now.AddDate(0, 2, 0),
			RegistrationStart: s.now,
			RegistrationEnd:   s.now.AddDate(0, 1, 0),
		})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("rejects inverted registration window", func() {
		_, err := s.service.Create(s.ctx, 1, &CreateRequest{
			Name:              "Backwards Window",
			Date:              s.now.AddDate(0, 2, 0),
			RegistrationStart: s.now.AddDate(0, 1, 0),
			RegistrationEnd:   s.now,
		})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("rejects registration closing after the exam date", func() {
		_, err := s.service.Create(s.ctx, 1, &CreateRequest{
			Name:              "Late Close",
			Date:              s.now.AddDate(0, 0, 1),
			RegistrationStart: s.now,
			RegistrationEnd:   s.now.AddDate(0, 1, 0),
		})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestLifecycle() {
	e := s.createExam("Lifecycle Exam")

	s.Run("publish draft", func() {
		published, err := s.service.Publish(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(StatusPublished, published.Status)
	})

	s.Run("publish twice fails", func() {
		_, err := s.service.Publish(s.ctx, e.ID)
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))
	})

	s.Run("open and close registration", func() {
		opened, err := s.service.OpenRegistration(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(StatusRegistrationOpen, opened.Status)

		closed, err := s.service.CloseRegistration(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(StatusRegistrationDone, closed.Status)
	})

	s.Run("end is terminal", func() {
		ended, err := s.service.End(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(StatusEnded, ended.Status)

		_, err = s.service.Unpublish(s.ctx, e.ID)
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))

		_, err = s.service.Update(s.ctx, e.ID, &UpdateRequest{Name: "Renamed"})
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestOpenForRegistration() {
	e := s.createExam("Window Exam")
	_, err := s.service.Publish(s.ctx, e.ID)
	s.Require().NoError(err)

	e, err = s.service.Get(s.ctx, e.ID)
	s.Require().NoError(err)

	s.True(e.OpenForRegistration(s.now))
	s.False(e.OpenForRegistration(e.RegistrationStart.Add(-time.Minute)), "before window")
	s.False(e.OpenForRegistration(e.RegistrationEnd), "window end is exclusive")
}

func (s *ServiceSuite) TestSites() {
	e := s.createExam("Sited Exam")

	site, err := s.service.AddSite(s.ctx, e.ID, &Site{
		Name:     "Downtown Center",
		Address:  "1 Main St",
		Capacity: 2,
	})
	s.Require().NoError(err)
	s.Equal(SiteEnabled, site.Status)

	s.Run("claim seats until full", func() {
		s.Require().NoError(s.service.ClaimSeat(s.ctx, e.ID, site.ID))
		s.Require().NoError(s.service.ClaimSeat(s.ctx, e.ID, site.ID))

		err := s.service.ClaimSeat(s.ctx, e.ID, site.ID)
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))

		got, err := s.service.Get(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(2, got.CurrentCount)
	})

	s.Run("site with registrations cannot be deleted", func() {
		err := s.service.DeleteSite(s.ctx, site.ID)
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))
	})

	s.Run("capacity cannot drop below seats taken", func() {
		_, err := s.service.UpdateSite(s.ctx, site.ID, &Site{Capacity: 1})
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))
	})

	s.Run("release frees a seat", func() {
		s.Require().NoError(s.service.ReleaseSeat(s.ctx, e.ID, site.ID))
		s.Require().NoError(s.service.ClaimSeat(s.ctx, e.ID, site.ID))
	})

	s.Run("exam with registrations cannot be deleted", func() {
		err := s.service.Delete(s.ctx, e.ID)
		s.Equal(dErrors.CodePrecondition, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestAvailable() {
	draft := s.createExam("Hidden Draft")
	_ = draft

	published := s.createExam("Visible Published")
	_, err := s.service.Publish(s.ctx, published.ID)
	s.Require().NoError(err)

	open := s.createExam("Visible Open")
	_, err = s.service.Publish(s.ctx, open.ID)
	s.Require().NoError(err)
	_, err = s.service.OpenRegistration(s.ctx, open.ID)
	s.Require().NoError(err)

	page, err := s.service.Available(s.ctx, "", 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	for _, e := range page.Records {
		s.NotEqual(StatusDraft, e.Status)
	}
}

func (s *ServiceSuite) TestStats() {
	s.createExam("One")
	two := s.createExam("Two")
	_, err := s.service.Publish(s.ctx, two.ID)
	s.Require().NoError(err)

	st, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), st.TotalCount)
	s.Equal(int64(1), st.DraftCount)
	s.Equal(int64(1), st.PublishedCount)
}
