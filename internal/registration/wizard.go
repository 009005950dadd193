package registration

import (
	"time"

	"examreg/internal/exam"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/validate"
)

// Step is the wizard position. Steps only advance in order; Back steps
// one position at a time and never past the first step.
type Step int

const (
	StepSelectingExam Step = iota + 1
	StepSelectingSite
	StepEnteringDetails
	StepConfirming
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepSelectingExam:
		return "selecting_exam"
	case StepSelectingSite:
		return "selecting_site"
	case StepEnteringDetails:
		return "entering_details"
	case StepConfirming:
		return "confirming"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Details is what the candidate confirms about themselves before
// submission.
type Details struct {
	RealName string `json:"realName"`
	IDCard   string `json:"idCard"`
	Phone    string `json:"phone"`
}

func (d *Details) Validate() error {
	if d.RealName == "" {
		return dErrors.New(dErrors.CodeValidation, "real name is required")
	}
	if !validate.IDCard(d.IDCard) {
		return dErrors.New(dErrors.CodeValidation, "id card number is not valid")
	}
	if !validate.Phone(d.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone number is not valid")
	}
	return nil
}

// Wizard walks a candidate through a registration one step at a time.
// Each transition checks the preconditions for the data it accepts, so
// an out-of-order call fails instead of corrupting the draft. The
// wizard holds only the draft; Submitted is reached from outside once
// the submission actually lands.
type Wizard struct {
	step    Step
	examID  int64
	siteID  int64
	details Details
}

func NewWizard() *Wizard {
	return &Wizard{step: StepSelectingExam}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) wrongStep(want Step) error {
	return dErrors.Newf(dErrors.CodePrecondition,
		"this action belongs to the %s step, the wizard is at %s", want, w.step)
}

// SelectExam pins the exam. The exam must be accepting registrations
// at now.
func (w *Wizard) SelectExam(e *exam.Exam, now time.Time) error {
	if w.step != StepSelectingExam {
		return w.wrongStep(StepSelectingExam)
	}
	if e == nil {
		return dErrors.New(dErrors.CodeBadRequest, "exam is required")
	}
	if !e.OpenForRegistration(now) {
		return dErrors.New(dErrors.CodePrecondition, "the exam is not accepting registrations")
	}
	w.examID = e.ID
	w.step = StepSelectingSite
	return nil
}

// SelectSite pins a site belonging to the chosen exam. A full site is
// refused here as a convenience; the submission re-checks.
func (w *Wizard) SelectSite(site *exam.Site) error {
	if w.step != StepSelectingSite {
		return w.wrongStep(StepSelectingSite)
	}
	if site == nil {
		return dErrors.New(dErrors.CodeBadRequest, "site is required")
	}
	if site.ExamID != w.examID {
		return dErrors.New(dErrors.CodeBadRequest, "site does not belong to the selected exam")
	}
	if !site.Selectable() {
		return dErrors.New(dErrors.CodePrecondition, "the selected site is full")
	}
	w.siteID = site.ID
	w.step = StepEnteringDetails
	return nil
}

// EnterDetails records the candidate's confirmed particulars.
func (w *Wizard) EnterDetails(d Details) error {
	if w.step != StepEnteringDetails {
		return w.wrongStep(StepEnteringDetails)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	w.details = d
	w.step = StepConfirming
	return nil
}

// Back steps one position toward the start. The data entered at the
// abandoned step is kept so moving forward again can re-confirm it.
func (w *Wizard) Back() error {
	switch w.step {
	case StepSelectingExam:
		return dErrors.New(dErrors.CodePrecondition, "already at the first step")
	case StepSubmitted:
		return dErrors.New(dErrors.CodePrecondition, "a submitted registration cannot be edited")
	default:
		w.step--
		return nil
	}
}

// Draft returns what would be submitted. Only valid while confirming.
func (w *Wizard) Draft() (*SubmitRequest, Details, error) {
	if w.step != StepConfirming {
		return nil, Details{}, w.wrongStep(StepConfirming)
	}
	req := &SubmitRequest{
		ExamID: w.examID,
		SiteID: w.siteID,
		IDCard: w.details.IDCard,
		Phone:  w.details.Phone,
	}
	return req, w.details, nil
}

// MarkSubmitted finishes the wizard after a successful submission. A
// failed submission leaves the wizard confirming so the candidate can
// retry or step back.
func (w *Wizard) MarkSubmitted() error {
	if w.step != StepConfirming {
		return w.wrongStep(StepConfirming)
	}
	w.step = StepSubmitted
	return nil
}
