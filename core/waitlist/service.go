package waitlist

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/program"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("waitlist entry")
	ErrAlreadyOnWaitlist = errors.New("already on waitlist")
	errUnknownProgram    = "program does not exist"
)

type (
	Repository interface {
		// Create fails with ErrAlreadyOnWaitlist if (Email, ProgramSlug) is already registered.
		Create(ctx context.Context, entry Entry) (Entry, error)
		Exists(ctx context.Context, email, programSlug string) (bool, error)
		// List applies the QueryFilter. Entries are ordered by CreatedAt desc.
		List(ctx context.Context, filter QueryFilter) ([]Entry, error)
		Get(ctx context.Context, id int) (Entry, error)
		Delete(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckProgram(ctx context.Context, slug string) error
		Join(ctx context.Context, ne NewEntry) (Entry, error)
		List(ctx context.Context, filter QueryFilter) ([]Entry, error)
		Get(ctx context.Context, id int) (Entry, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		progRepo program.Repository
		mailSvc  core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, progRepo program.Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, progRepo: progRepo, mailSvc: mailSvc}
}

// CheckProgram fails with a core.ValidationError if no program has the slug `slug`.
func (svc *Service) CheckProgram(ctx context.Context, slug string) error {
	if _, err := svc.progRepo.GetBySlug(ctx, slug); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "program_slug", Error: errUnknownProgram})
		}
		return errors.Wrap(err, "getting program")
	}
	return nil
}

// Join adds `ne.Email` to the waitlist of the program and sends them a confirmation email.
func (svc *Service) Join(ctx context.Context, ne NewEntry) (Entry, error) {
	entry, err := svc.repo.Create(ctx, Entry{
		Email:       ne.Email,
		ProgramSlug: ne.ProgramSlug,
		CreatedAt:   core.NowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyOnWaitlist {
			return Entry{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return Entry{}, err
	}

	svc.sendConfirmationMail(entry)
	return entry, nil
}

func (svc *Service) sendConfirmationMail(entry Entry) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: entry.Email}},
		Subject:      "You're on the waitlist",
		TemplateName: "waitlist_confirmation",
		TemplateData: map[string]interface{}{
			"Email":       entry.Email,
			"ProgramSlug": entry.ProgramSlug,
		},
	})
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	filter.ProgramSlug = core.CleanString(filter.ProgramSlug, true /* lower */)
	return svc.repo.List(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int) (Entry, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
