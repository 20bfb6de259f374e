package lecture

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/program"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("lecture")
	errUnknownProgram = "program does not exist"
)

type (
	Repository interface {
		Create(ctx context.Context, lec Lecture) (Lecture, error)
		// List returns all lectures ordered by CreatedAt desc.
		List(ctx context.Context) ([]Lecture, error)
		// ListByProgram returns the lectures of a program ordered by Order asc.
		ListByProgram(ctx context.Context, programID int) ([]Lecture, error)
		Get(ctx context.Context, id int) (Lecture, error)
		Update(ctx context.Context, lec Lecture) (Lecture, error)
		Delete(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckProgram(ctx context.Context, programID int) error
		Create(ctx context.Context, nl NewLecture) (Lecture, error)
		List(ctx context.Context, filter QueryFilter) ([]Lecture, error)
		ListByProgram(ctx context.Context, programID int) ([]Lecture, error)
		Get(ctx context.Context, id int) (Lecture, error)
		Update(ctx context.Context, orig Lecture, ul UpdateLecture) (Lecture, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		progRepo program.Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, progRepo program.Repository) *Service {
	return &Service{repo: repo, progRepo: progRepo}
}

// CheckProgram fails with a core.ValidationError if the program `programID` does not exist.
func (svc *Service) CheckProgram(ctx context.Context, programID int) error {
	if _, err := svc.progRepo.Get(ctx, programID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "program_id", Error: errUnknownProgram})
		}
		return errors.Wrap(err, "getting program")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nl NewLecture) (Lecture, error) {
	return svc.repo.Create(ctx, Lecture{
		ProgramID:    nl.ProgramID,
		Title:        nl.Title,
		Description:  nl.Description,
		Category:     nl.Category,
		Level:        nl.Level,
		CohortNumber: nl.CohortNumber,
		Order:        nl.Order,
		Duration:     nl.Duration,
		Content:      nl.Content,
		VideoURL:     nl.VideoURL,
		Tags:         nl.Tags,
		CreatedAt:    core.NowFunc().UTC(),
	})
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Lecture, error) {
	if filter.ProgramID > 0 {
		return svc.repo.ListByProgram(ctx, filter.ProgramID)
	}
	return svc.repo.List(ctx)
}

func (svc *Service) ListByProgram(ctx context.Context, programID int) ([]Lecture, error) {
	return svc.repo.ListByProgram(ctx, programID)
}

func (svc *Service) Get(ctx context.Context, id int) (Lecture, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Lecture, ul UpdateLecture) (Lecture, error) {
	return svc.repo.Update(ctx, ul.apply(orig))
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
