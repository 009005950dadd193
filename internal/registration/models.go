package registration

import (
	"strings"
	"time"

	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/validate"
)

// AuditStatus tracks the admin review of a submitted registration.
type AuditStatus int

const (
	AuditPending  AuditStatus = 1
	AuditApproved AuditStatus = 2
	AuditRejected AuditStatus = 3
)

func (a AuditStatus) IsValid() bool {
	return a >= AuditPending && a <= AuditRejected
}

// PaymentStatus tracks the fee state of a registration.
type PaymentStatus int

const (
	PaymentUnpaid   PaymentStatus = 1
	PaymentPaid     PaymentStatus = 2
	PaymentRefunded PaymentStatus = 3
)

// Registration is one candidate's application for one exam. The id
// card and phone are the ones confirmed for this registration; they
// may differ from the account profile.
type Registration struct {
	ID                int64         `json:"id"`
	UserID            int64         `json:"userId"`
	ExamID            int64         `json:"examId"`
	SiteID            int64         `json:"siteId"`
	IDCard            string        `json:"idCard"`
	Phone             string        `json:"phone"`
	Subject           string        `json:"subject,omitempty"`
	Materials         string        `json:"materials,omitempty"`
	AuditStatus       AuditStatus   `json:"auditStatus"`
	AuditRemark       string        `json:"auditRemark,omitempty"`
	AuditBy           int64         `json:"auditBy,omitempty"`
	AuditTime         *time.Time    `json:"auditTime,omitempty"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	AdmissionTicketNo string        `json:"admissionTicketNo,omitempty"`
	CreatedAt         time.Time     `json:"createTime"`
	UpdatedAt         time.Time     `json:"updateTime"`
}

// Detail is a registration joined with the exam, site, and candidate
// fields the list and detail screens need.
type Detail struct {
	Registration

	ExamName    string    `json:"examName"`
	ExamDate    time.Time `json:"examDate"`
	ExamTime    string    `json:"examTime,omitempty"`
	Fee         float64   `json:"fee"`
	SiteName    string    `json:"siteName"`
	SiteAddress string    `json:"siteAddress,omitempty"`
	RealName    string    `json:"realName,omitempty"`
	Username    string    `json:"username,omitempty"`
}

type SubmitRequest struct {
	ExamID    int64  `json:"examId"`
	SiteID    int64  `json:"siteId"`
	IDCard    string `json:"idCard"`
	Phone     string `json:"phone"`
	Subject   string `json:"subject"`
	Materials string `json:"materials"`
}

func (r *SubmitRequest) Normalize() {
	if r == nil {
		return
	}
	r.IDCard = strings.TrimSpace(r.IDCard)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Materials = strings.TrimSpace(r.Materials)
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ExamID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "exam id is required")
	}
	if r.SiteID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "site id is required")
	}
	if !validate.IDCard(r.IDCard) {
		return dErrors.New(dErrors.CodeValidation, "id card number is not valid")
	}
	if !validate.Phone(r.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone number is not valid")
	}
	return nil
}

type AuditRequest struct {
	Approved bool   `json:"approved"`
	Remark   string `json:"remark"`
}

func (r *AuditRequest) Normalize() {
	if r == nil {
		return
	}
	r.Remark = strings.TrimSpace(r.Remark)
}

func (r *AuditRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Remark) > 500 {
		return dErrors.New(dErrors.CodeValidation, "remark must be 500 characters or less")
	}
	if !r.Approved && r.Remark == "" {
		return dErrors.New(dErrors.CodeValidation, "a rejection must carry a remark")
	}
	return nil
}

// Filter narrows registration listings.
type Filter struct {
	UserID      int64
	ExamID      int64
	AuditStatus AuditStatus // zero means any
}

// Page is a window of registration details with the total match count.
type Page struct {
	Records []*Detail `json:"records"`
	Total   int64     `json:"total"`
	Current int       `json:"current"`
	Size    int       `json:"size"`
}

// Stats aggregates registrations by audit and payment state.
type Stats struct {
	TotalCount    int64 `json:"totalCount"`
	PendingCount  int64 `json:"pendingCount"`
	ApprovedCount int64 `json:"approvedCount"`
	RejectedCount int64 `json:"rejectedCount"`
	PaidCount     int64 `json:"paidCount"`
	UnpaidCount   int64 `json:"unpaidCount"`
}

// TrendPoint is one day of submission counts for the dashboard.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
