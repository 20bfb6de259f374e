package user

import (
	"context"
	"errors"
	"net/mail"

	"github.com/trezcool/coursehub/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...User) error
		Create(ctx context.Context, usr User) (User, error)
		// List applies AND operation on available QueryFilter fields. Users are ordered by CreatedAt desc.
		List(ctx context.Context, filter QueryFilter) ([]User, error)
		Get(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		List(ctx context.Context, filter QueryFilter) ([]User, error)
		Get(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, orig User, uu UpdateUser) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// emailError turns ErrEmailExists into a validation error on the email field.
func emailError(err error) error {
	if err == ErrEmailExists {
		return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return err
}

func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string, excluded ...User) error {
	return emailError(svc.repo.CheckEmailUniqueness(ctx, email, excluded...))
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := core.NowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsAdmin:   nu.IsAdmin,
		Cohort:    nu.Cohort,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.Create(ctx, usr)
	if err != nil {
		return User{}, emailError(err)
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome aboard",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"Name": usr.Name,
			"Role": string(usr.Role),
		},
	})
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.List(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, orig User, uu UpdateUser) (User, error) {
	usr := uu.apply(orig)
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	usr, err := svc.repo.Update(ctx, usr)
	return usr, emailError(err)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.Update(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc().UTC()
	return svc.repo.Update(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
