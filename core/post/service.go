package post

import (
	"context"
	"errors"

	"github.com/trezcool/coursehub/core"
)

const minSimilarity = 0.6

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("post")
	ErrSlugExists = errors.New("a post with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Post) error
		Create(ctx context.Context, p Post) (Post, error)
		// List applies AND operation on available QueryFilter fields. Posts are ordered by CreatedAt desc.
		List(ctx context.Context, filter QueryFilter) ([]Post, error)
		Get(ctx context.Context, id int) (Post, error)
		GetBySlug(ctx context.Context, slug string) (Post, error)
		Update(ctx context.Context, p Post) (Post, error)
		Delete(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Post) error
		Create(ctx context.Context, np NewPost) (Post, error)
		List(ctx context.Context, filter QueryFilter) ([]Post, error)
		ListPublished(ctx context.Context, search string) ([]Post, error)
		Get(ctx context.Context, id int) (Post, error)
		// GetPublishedBySlugOrSimilar only considers published posts.
		GetPublishedBySlugOrSimilar(ctx context.Context, key string) (Post, error)
		Update(ctx context.Context, orig Post, up UpdatePost) (Post, error)
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

func slugError(err error) error {
	if err == ErrSlugExists {
		return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
	}
	return err
}

func (svc *Service) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Post) error {
	return slugError(svc.repo.CheckSlugUniqueness(ctx, slug, excluded...))
}

func (svc *Service) Create(ctx context.Context, np NewPost) (Post, error) {
	now := core.NowFunc().UTC()
	p, err := svc.repo.Create(ctx, Post{
		Title:     np.Title,
		Slug:      np.Slug,
		Content:   np.Content,
		Status:    np.Status,
		Category:  np.Category,
		Tags:      np.Tags,
		Author:    np.Author,
		AuthorID:  np.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return p, slugError(err)
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Post, error) {
	filter.Clean()
	return svc.repo.List(ctx, filter)
}

func (svc *Service) ListPublished(ctx context.Context, search string) ([]Post, error) {
	return svc.List(ctx, QueryFilter{Search: search, Status: StatusPublished})
}

func (svc *Service) Get(ctx context.Context, id int) (Post, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublishedBySlugOrSimilar(ctx context.Context, key string) (Post, error) {
	p, err := svc.repo.GetBySlug(ctx, core.CleanString(key, true /* lower */))
	if err == nil && p.IsPublished() {
		return p, nil
	}
	if err != nil && !core.IsNotFound(err) {
		return Post{}, err
	}

	posts, err := svc.ListPublished(ctx, "")
	if err != nil {
		return Post{}, err
	}
	slugs := make([]string, len(posts))
	for i, p := range posts {
		slugs[i] = p.Slug
	}
	if idx := core.MostSimilar(key, slugs, minSimilarity); idx >= 0 {
		return posts[idx], nil
	}
	return Post{}, ErrNotFound
}

func (svc *Service) Update(ctx context.Context, orig Post, up UpdatePost) (Post, error) {
	p := up.apply(orig)
	p.UpdatedAt = core.NowFunc().UTC()
	p, err := svc.repo.Update(ctx, p)
	return p, slugError(err)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
