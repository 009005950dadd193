package user

import (
	"strings"
	"time"

	"examreg/internal/guard"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/validate"
)

// Status is the account state.
type Status int

const (
	StatusActive   Status = 1
	StatusDisabled Status = 2
)

// User is the account record. The password field holds a bcrypt hash and
// never leaves the service layer.
type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Password      string     `json:"-"`
	RealName      string     `json:"realName"`
	IDCard        string     `json:"idCard,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Email         string     `json:"email,omitempty"`
	Gender        int        `json:"gender,omitempty"`
	Education     string     `json:"education,omitempty"`
	Address       string     `json:"address,omitempty"`
	Role          guard.Role `json:"role"`
	Status        Status     `json:"status"`
	LoginFailures int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLoginAt   *time.Time `json:"lastLoginTime,omitempty"`
	LastLoginIP   string     `json:"-"`
	CreatedAt     time.Time  `json:"createTime"`
	UpdatedAt     time.Time  `json:"updateTime"`
}

// Identity projects the account into the guard's identity shape.
func (u *User) Identity() guard.Identity {
	return guard.Identity{
		ID:       u.ID,
		Username: u.Username,
		RealName: u.RealName,
		Role:     u.Role,
		Phone:    u.Phone,
		Email:    u.Email,
	}
}

// Locked reports whether the account is under a login lockout at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RealName string `json:"realName"`
	IDCard   string `json:"idCard"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	r.Username = strings.TrimSpace(r.Username)
	r.RealName = strings.TrimSpace(r.RealName)
	r.IDCard = strings.TrimSpace(r.IDCard)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.Username) > 64 {
		return dErrors.New(dErrors.CodeValidation, "username must be 64 characters or less")
	}
	if len(r.RealName) > 64 {
		return dErrors.New(dErrors.CodeValidation, "real name must be 64 characters or less")
	}

	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if r.RealName == "" {
		return dErrors.New(dErrors.CodeValidation, "real name is required")
	}

	if len(r.Password) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	if r.Phone != "" && !validate.Phone(r.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone number format is invalid")
	}
	if r.IDCard != "" && !validate.IDCard(r.IDCard) {
		return dErrors.New(dErrors.CodeValidation, "id card number format is invalid")
	}
	return nil
}

type UpdateRequest struct {
	RealName  string `json:"realName"`
	IDCard    string `json:"idCard"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Gender    int    `json:"gender"`
	Education string `json:"education"`
	Address   string `json:"address"`
}

func (r *UpdateRequest) Normalize() {
	if r == nil {
		return
	}
	r.RealName = strings.TrimSpace(r.RealName)
	r.IDCard = strings.TrimSpace(r.IDCard)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Phone != "" && !validate.Phone(r.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone number format is invalid")
	}
	if r.IDCard != "" && !validate.IDCard(r.IDCard) {
		return dErrors.New(dErrors.CodeValidation, "id card number format is invalid")
	}
	return nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.OldPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "old password is required")
	}
	if r.NewPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "new password is required")
	}
	if len(r.NewPassword) < 6 {
		return dErrors.New(dErrors.CodeValidation, "new password must be at least 6 characters")
	}
	return nil
}

// Stats aggregates account counts for the statistics dashboard.
type Stats struct {
	TotalCount    int64 `json:"totalCount"`
	UserCount     int64 `json:"userCount"`
	AdminCount    int64 `json:"adminCount"`
	ActiveCount   int64 `json:"activeCount"`
	DisabledCount int64 `json:"disabledCount"`
}
