package review

import (
	"context"

	"github.com/trezcool/coursehub/core"
)

var ErrNotFound = core.NewNotFoundError("review")

type (
	Repository interface {
		Create(ctx context.Context, rev Review) (Review, error)
		// List returns all reviews, featured first then newest first.
		List(ctx context.Context) ([]Review, error)
		// ListFeatured returns the featured reviews, newest first.
		ListFeatured(ctx context.Context) ([]Review, error)
		Get(ctx context.Context, id int) (Review, error)
		Update(ctx context.Context, rev Review) (Review, error)
		// ToggleLike adds or removes the like of `accountID` and returns the updated review.
		ToggleLike(ctx context.Context, id, accountID int) (Review, error)
		Delete(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nr NewReview) (Review, error)
		List(ctx context.Context) ([]Review, error)
		ListFeatured(ctx context.Context) ([]Review, error)
		Get(ctx context.Context, id int) (Review, error)
		Update(ctx context.Context, orig Review, ur UpdateReview) (Review, error)
		ToggleLike(ctx context.Context, id, accountID int) (Review, error)
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

func (svc *Service) Create(ctx context.Context, nr NewReview) (Review, error) {
	return svc.repo.Create(ctx, Review{
		AuthorID:   nr.AuthorID,
		AuthorName: nr.AuthorName,
		Rating:     nr.Rating,
		Text:       nr.Text,
		Likes:      []int{},
		CreatedAt:  core.NowFunc().UTC(),
	})
}

func (svc *Service) List(ctx context.Context) ([]Review, error) {
	return svc.repo.List(ctx)
}

func (svc *Service) ListFeatured(ctx context.Context) ([]Review, error) {
	return svc.repo.ListFeatured(ctx)
}

func (svc *Service) Get(ctx context.Context, id int) (Review, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Review, ur UpdateReview) (Review, error) {
	return svc.repo.Update(ctx, ur.apply(orig))
}

func (svc *Service) ToggleLike(ctx context.Context, id, accountID int) (Review, error) {
	return svc.repo.ToggleLike(ctx, id, accountID)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
