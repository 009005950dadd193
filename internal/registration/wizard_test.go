package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examreg/internal/exam"
	dErrors "examreg/pkg/domain-errors"
)

func wizardFixtures() (*exam.Exam, *exam.Site, time.Time) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	e := &exam.Exam{
		ID:                7,
		Name:              "Spring Certification",
		Status:            exam.StatusRegistrationOpen,
		RegistrationStart: now.AddDate(0, 0, -1),
		RegistrationEnd:   now.AddDate(0, 0, 7),
		Date:              now.AddDate(0, 1, 0),
	}
	site := &exam.Site{
		ID:       3,
		ExamID:   7,
		Name:     "Downtown Center",
		Capacity: 30,
		Status:   exam.SiteEnabled,
	}
	return e, site, now
}

func validDetails() Details {
	return Details{
		RealName: "Zhang San",
		IDCard:   "110101199001011234",
		Phone:    "13812345678",
	}
}

func TestWizardHappyPath(t *testing.T) {
	e, site, now := wizardFixtures()
	w := NewWizard()

	require.NoError(t, w.SelectExam(e, now))
	require.NoError(t, w.SelectSite(site))
	require.NoError(t, w.EnterDetails(validDetails()))

	draft, details, err := w.Draft()
	require.NoError(t, err)
	assert.Equal(t, e.ID, draft.ExamID)
	assert.Equal(t, site.ID, draft.SiteID)
	assert.Equal(t, details.IDCard, draft.IDCard)
	assert.Equal(t, details.Phone, draft.Phone)
	assert.Equal(t, "Zhang San", details.RealName)

	require.NoError(t, w.MarkSubmitted())
	assert.Equal(t, StepSubmitted, w.Step())
}

func TestWizardRefusesOutOfOrderCalls(t *testing.T) {
	e, site, now := wizardFixtures()
	w := NewWizard()

	err := w.SelectSite(site)
	assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))

	err = w.EnterDetails(validDetails())
	assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))

	err = w.MarkSubmitted()
	assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))

	require.NoError(t, w.SelectExam(e, now))
	err = w.SelectExam(e, now)
	assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))
}

func TestWizardSelectExam(t *testing.T) {
	e, _, now := wizardFixtures()

	t.Run("refuses a draft exam", func(t *testing.T) {
		w := NewWizard()
		closed := *e
		closed.Status = exam.StatusDraft
		err := w.SelectExam(&closed, now)
		assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))
		assert.Equal(t, StepSelectingExam, w.Step())
	})

	t.Run("refuses an exam outside its window", func(t *testing.T) {
		w := NewWizard()
		err := w.SelectExam(e, e.RegistrationEnd.Add(time.Hour))
		assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))
	})
}

func TestWizardSelectSite(t *testing.T) {
	e, site, now := wizardFixtures()

	t.Run("refuses a site of another exam", func(t *testing.T) {
		w := NewWizard()
		require.NoError(t, w.SelectExam(e, now))
		foreign := *site
		foreign.ExamID = 99
		err := w.SelectSite(&foreign)
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	t.Run("refuses a full site", func(t *testing.T) {
		w := NewWizard()
		require.NoError(t, w.SelectExam(e, now))
		full := *site
		full.CurrentCount = full.Capacity
		err := w.SelectSite(&full)
		assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err))
		assert.Equal(t, StepSelectingSite, w.Step())
	})
}

func TestWizardDetailsValidation(t *testing.T) {
	e, site, now := wizardFixtures()
	w := NewWizard()
	require.NoError(t, w.SelectExam(e, now))
	require.NoError(t, w.SelectSite(site))

	bad := validDetails()
	bad.Phone = "12345"
	err := w.EnterDetails(bad)
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
	assert.Equal(t, StepEnteringDetails, w.Step())

	bad = validDetails()
	bad.IDCard = "not-an-id"
	err = w.EnterDetails(bad)
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
}

func TestWizardBack(t *testing.T) {
	e, site, now := wizardFixtures()
	w := NewWizard()

	err := w.Back()
	assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err), "cannot step before the first step")

	require.NoError(t, w.SelectExam(e, now))
	require.NoError(t, w.SelectSite(site))
	require.NoError(t, w.Back())
	assert.Equal(t, StepSelectingSite, w.Step())

	// The prior selection survives a back-and-forth.
	require.NoError(t, w.SelectSite(site))
	require.NoError(t, w.EnterDetails(validDetails()))
	require.NoError(t, w.MarkSubmitted())

	err = w.Back()
	assert.Equal(t, dErrors.CodePrecondition, dErrors.CodeOf(err), "submitted is terminal")
}
