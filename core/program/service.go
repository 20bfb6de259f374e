package program

import (
	"context"
	"errors"

	"github.com/trezcool/coursehub/core"
)

// minSimilarity is the lowest slug similarity ratio GetBySlugOrSimilar accepts.
const minSimilarity = 0.6

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("program")
	ErrSlugExists = errors.New("a program with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Program) error
		Create(ctx context.Context, prog Program) (Program, error)
		// List applies AND operation on available QueryFilter fields. Programs are ordered by CreatedAt desc.
		List(ctx context.Context, filter QueryFilter) ([]Program, error)
		Get(ctx context.Context, id int) (Program, error)
		GetBySlug(ctx context.Context, slug string) (Program, error)
		Update(ctx context.Context, prog Program) (Program, error)
		Delete(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Program) error
		Create(ctx context.Context, np NewProgram) (Program, error)
		List(ctx context.Context, filter QueryFilter) ([]Program, error)
		Get(ctx context.Context, id int) (Program, error)
		GetBySlug(ctx context.Context, slug string) (Program, error)
		GetBySlugOrSimilar(ctx context.Context, key string) (Program, error)
		Update(ctx context.Context, orig Program, up UpdateProgram) (Program, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// slugError turns ErrSlugExists into a validation error on the slug field.
func slugError(err error) error {
	if err == ErrSlugExists {
		return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
	}
	return err
}

func (svc *Service) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Program) error {
	return slugError(svc.repo.CheckSlugUniqueness(ctx, slug, excluded...))
}

// Create fails with a validation error if the slug was taken since NewProgram.Validate.
func (svc *Service) Create(ctx context.Context, np NewProgram) (Program, error) {
	prog, err := svc.repo.Create(ctx, Program{
		Slug:             np.Slug,
		Title:            np.Title,
		Type:             np.Type,
		HasCommonCourse:  np.HasCommonCourse,
		Price:            np.Price,
		Duration:         np.Duration,
		Level:            np.Level,
		Description:      np.Description,
		DescriptionShort: np.DescriptionShort,
		DescriptionLong:  np.DescriptionLong,
		ThumbnailURL:     np.ThumbnailURL,
		Tags:             np.Tags,
		CreatedAt:        core.NowFunc().UTC(),
	})
	return prog, slugError(err)
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Program, error) {
	filter.Clean()
	return svc.repo.List(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int) (Program, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Program, error) {
	return svc.repo.GetBySlug(ctx, core.CleanString(slug, true /* lower */))
}

// GetBySlugOrSimilar returns the Program whose slug is `key`, or else the one with the most similar slug.
func (svc *Service) GetBySlugOrSimilar(ctx context.Context, key string) (Program, error) {
	prog, err := svc.GetBySlug(ctx, key)
	if err == nil || !core.IsNotFound(err) {
		return prog, err
	}

	progs, err := svc.repo.List(ctx, QueryFilter{})
	if err != nil {
		return Program{}, err
	}
	slugs := make([]string, len(progs))
	for i, p := range progs {
		slugs[i] = p.Slug
	}
	if idx := core.MostSimilar(key, slugs, minSimilarity); idx >= 0 {
		return progs[idx], nil
	}
	return Program{}, ErrNotFound
}

func (svc *Service) Update(ctx context.Context, orig Program, up UpdateProgram) (Program, error) {
	prog, err := svc.repo.Update(ctx, up.apply(orig))
	return prog, slugError(err)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
