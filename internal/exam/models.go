package exam

import (
	"strings"
	"time"

	dErrors "examreg/pkg/domain-errors"
)

// Status is the exam lifecycle state.
type Status int

const (
	StatusDraft            Status = 1
	StatusPublished        Status = 2
	StatusRegistrationOpen Status = 3
	StatusRegistrationDone Status = 4
	StatusEnded            Status = 5
)

func (s Status) IsValid() bool {
	return s >= StatusDraft && s <= StatusEnded
}

// Exam is a scheduled examination with a registration window and fee.
type Exam struct {
	ID                int64     `json:"id"`
	Name              string    `json:"examName"`
	Type              string    `json:"examType"`
	Date              time.Time `json:"examDate"`
	TimeSlot          string    `json:"examTime"`
	RegistrationStart time.Time `json:"registrationStart"`
	RegistrationEnd   time.Time `json:"registrationEnd"`
	Fee               float64   `json:"fee"`
	Description       string    `json:"description,omitempty"`
	Notice            string    `json:"notice,omitempty"`
	Status            Status    `json:"status"`
	TotalQuota        int       `json:"totalQuota,omitempty"`
	CurrentCount      int       `json:"currentCount"`
	CreateBy          int64     `json:"createBy,omitempty"`
	CreatedAt         time.Time `json:"createTime"`
	UpdatedAt         time.Time `json:"updateTime"`
}

// OpenForRegistration reports whether a candidate may start a
// registration for this exam at now. Published and open exams accept
// registrations while the window is open.
func (e *Exam) OpenForRegistration(now time.Time) bool {
	if e.Status != StatusPublished && e.Status != StatusRegistrationOpen {
		return false
	}
	if now.Before(e.RegistrationStart) || !now.Before(e.RegistrationEnd) {
		return false
	}
	return true
}

// SiteStatus enables or disables a site.
type SiteStatus int

const (
	SiteEnabled  SiteStatus = 1
	SiteDisabled SiteStatus = 2
)

// Site is a physical test location attached to one exam.
type Site struct {
	ID           int64      `json:"id"`
	ExamID       int64      `json:"examId"`
	Name         string     `json:"siteName"`
	Province     string     `json:"province,omitempty"`
	City         string     `json:"city,omitempty"`
	Address      string     `json:"address"`
	ContactPhone string     `json:"contactPhone,omitempty"`
	Capacity     int        `json:"capacity"`
	CurrentCount int        `json:"currentCount"`
	Status       SiteStatus `json:"status"`
	CreatedAt    time.Time  `json:"createTime"`
}

// Selectable reports whether a candidate may pick this site. The answer
// is advisory: the authoritative check happens again at submission.
func (s *Site) Selectable() bool {
	return s.Status == SiteEnabled && s.CurrentCount < s.Capacity
}

type CreateRequest struct {
	Name              string    `json:"examName"`
	Type              string    `json:"examType"`
	Date              time.Time `json:"examDate"`
	TimeSlot          string    `json:"examTime"`
	RegistrationStart time.Time `json:"registrationStart"`
	RegistrationEnd   time.Time `json:"registrationEnd"`
	Fee               float64   `json:"fee"`
	Description       string    `json:"description"`
	Notice            string    `json:"notice"`
	TotalQuota        int       `json:"totalQuota"`
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	r.TimeSlot = strings.TrimSpace(r.TimeSlot)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.Name) > 128 {
		return dErrors.New(dErrors.CodeValidation, "exam name must be 128 characters or less")
	}

	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "exam name is required")
	}
	if r.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "exam date is required")
	}
	if r.RegistrationStart.IsZero() || r.RegistrationEnd.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "registration window is required")
	}

	if r.Fee < 0 {
		return dErrors.New(dErrors.CodeValidation, "fee must not be negative")
	}
	if !r.RegistrationStart.Before(r.RegistrationEnd) {
		return dErrors.New(dErrors.CodeValidation, "registration start must be before registration end")
	}
	if r.RegistrationEnd.After(r.Date) {
		return dErrors.New(dErrors.CodeValidation, "registration must close before the exam date")
	}
	return nil
}

type UpdateRequest struct {
	Name              string    `json:"examName"`
	Type              string    `json:"examType"`
	Date              time.Time `json:"examDate"`
	TimeSlot          string    `json:"examTime"`
	RegistrationStart time.Time `json:"registrationStart"`
	RegistrationEnd   time.Time `json:"registrationEnd"`
	Fee               float64   `json:"fee"`
	Description       string    `json:"description"`
	Notice            string    `json:"notice"`
	TotalQuota        int       `json:"totalQuota"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Fee < 0 {
		return dErrors.New(dErrors.CodeValidation, "fee must not be negative")
	}
	if !r.RegistrationStart.IsZero() && !r.RegistrationEnd.IsZero() &&
		!r.RegistrationStart.Before(r.RegistrationEnd) {
		return dErrors.New(dErrors.CodeValidation, "registration start must be before registration end")
	}
	return nil
}

// Page is a window of exams with the total match count.
type Page struct {
	Records []*Exam `json:"records"`
	Total   int64   `json:"total"`
	Current int     `json:"current"`
	Size    int     `json:"size"`
}

// Filter narrows exam listings.
type Filter struct {
	Name   string
	Type   string
	Status Status // zero means any
}

// Stats aggregates exam counts by status.
type Stats struct {
	TotalCount     int64 `json:"totalCount"`
	DraftCount     int64 `json:"draftCount"`
	PublishedCount int64 `json:"publishedCount"`
	OpenCount      int64 `json:"registrationOpenCount"`
	ClosedCount    int64 `json:"registrationClosedCount"`
	EndedCount     int64 `json:"completedCount"`
}
