package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/account"
)

type User struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         account.Role `json:"role"`
	IsAdmin      bool         `json:"is_admin"`
	Cohort       string       `json:"cohort,omitempty"`
	PasswordHash []byte       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
	LastLogin    time.Time    `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Raw returns the user as a raw account.
func (u User) Raw() *account.Raw {
	return &account.Raw{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    string(u.Role),
		IsAdmin: u.IsAdmin,
		Cohort:  u.Cohort,
	}
}

// Viewer returns the normalized identity of the user.
func (u User) Viewer() account.Viewer {
	return account.Resolve(u.Raw())
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string       `json:"name" validate:"required,notblank"`
	Email           string       `json:"email" validate:"required,email"`
	Role            account.Role `json:"role" validate:"omitempty,role"`
	IsAdmin         bool         `json:"is_admin"`
	Cohort          string       `json:"cohort"`
	Password        string       `json:"password" validate:"required"`
	PasswordConfirm string       `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = account.Role(core.CleanString(string(nu.Role), true /* lower */))
	if nu.Role == "" {
		nu.Role = account.RoleFree
	}
	nu.Cohort = core.CleanString(nu.Cohort)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Zero values keep the original ones.
type UpdateUser struct {
	Name            string       `json:"name"`
	Email           string       `json:"email" validate:"omitempty,email"`
	Role            account.Role `json:"role" validate:"omitempty,role"`
	IsAdmin         *bool        `json:"is_admin"`
	Cohort          *string      `json:"cohort"`
	Password        string       `json:"password" validate:"omitempty"`
	PasswordConfirm string       `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// AdminOnly reports whether `uu` changes fields only admins may change.
func (uu UpdateUser) AdminOnly() bool {
	return uu.Role != "" || uu.IsAdmin != nil || uu.Cohort != nil
}

func (uu *UpdateUser) Validate(ctx context.Context, orig User, validate *validator.Validate, svc ServiceInterface) error {
	if uu.Name = core.CleanString(uu.Name); uu.Name == "" {
		uu.Name = orig.Name
	}
	if uu.Email = core.CleanString(uu.Email, true /* lower */); uu.Email == "" {
		uu.Email = orig.Email
	}
	if uu.Role = account.Role(core.CleanString(string(uu.Role), true /* lower */)); uu.Role == "" {
		uu.Role = orig.Role
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, uu.Email, orig)
}

func (uu UpdateUser) apply(orig User) User {
	usr := orig
	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Role = uu.Role
	if uu.IsAdmin != nil {
		usr.IsAdmin = *uu.IsAdmin
	}
	if uu.Cohort != nil {
		usr.Cohort = core.CleanString(*uu.Cohort)
	}
	return usr
}

type QueryFilter struct {
	Search  string       `query:"search"`
	Role    account.Role `query:"role"`
	IsAdmin *bool        `query:"is_admin"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if qf.Role != "" {
		qf.Role = account.ParseRole(string(qf.Role))
	}
}

// Match reports whether `usr` passes the filter.
// Search does a case-insensitive match on one of Name or Email.
func (qf QueryFilter) Match(usr User) bool {
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.IsAdmin != nil && usr.IsAdmin != *qf.IsAdmin {
		return false
	}
	if qf.Search == "" {
		return true
	}
	s := strings.ToLower(qf.Search)
	return strings.Contains(strings.ToLower(usr.Name), s) || strings.Contains(usr.Email, s)
}
