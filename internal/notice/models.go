package notice

import (
	"strings"
	"time"

	dErrors "examreg/pkg/domain-errors"
)

// Status is the notice publication state.
type Status int

const (
	StatusDraft     Status = 1
	StatusPublished Status = 2
)

// Notice is an announcement shown to candidates.
type Notice struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Type        string     `json:"type,omitempty"`
	Status      Status     `json:"status"`
	Top         bool       `json:"isTop"`
	ViewCount   int64      `json:"viewCount"`
	PublishBy   int64      `json:"publishBy,omitempty"`
	PublishTime *time.Time `json:"publishTime,omitempty"`
	CreatedAt   time.Time  `json:"createTime"`
	UpdatedAt   time.Time  `json:"updateTime"`
}

type SaveRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Top     bool   `json:"isTop"`
}

func (r *SaveRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Type = strings.TrimSpace(r.Type)
}

func (r *SaveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.Content == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}

// Page is a window of notices with the total match count.
type Page struct {
	Records []*Notice `json:"records"`
	Total   int64     `json:"total"`
	Current int       `json:"current"`
	Size    int       `json:"size"`
}

// Filter narrows notice listings.
type Filter struct {
	Title  string
	Status Status // zero means any
}
