package review

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

type Review struct {
	ID         int       `json:"id"`
	AuthorID   int       `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	Likes      []int     `json:"likes"` // account IDs
	Featured   bool      `json:"featured"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

func (r Review) LikeCount() int { return len(r.Likes) }

func (r Review) LikedBy(accountID int) bool {
	for _, id := range r.Likes {
		if id == accountID {
			return true
		}
	}
	return false
}

// ToggleLike adds the like of `accountID` if absent, removes it otherwise. Returns whether it is now liked.
func (r *Review) ToggleLike(accountID int) bool {
	for i, id := range r.Likes {
		if id == accountID {
			likes := make([]int, 0, len(r.Likes)-1)
			likes = append(likes, r.Likes[:i]...)
			r.Likes = append(likes, r.Likes[i+1:]...)
			return false
		}
	}
	r.Likes = append(append(make([]int, 0, len(r.Likes)+1), r.Likes...), accountID)
	return true
}

// Sort orders reviews featured first, then newest first.
func Sort(reviews []Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		if reviews[i].Featured != reviews[j].Featured {
			return reviews[i].Featured
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}

// SortNewest orders reviews newest first.
func SortNewest(reviews []Review) {
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
}

// NewReview contains information needed to create a new Review.
type NewReview struct {
	AuthorID   int    `json:"-"`
	AuthorName string `json:"author_name" validate:"required,notblank,max=100"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Text       string `json:"text" validate:"required,notblank,max=2000"`
}

func (nr *NewReview) Validate(_ context.Context, validate *validator.Validate) error {
	nr.AuthorName = core.CleanString(nr.AuthorName)
	nr.Text = core.CleanString(nr.Text)
	return validate.Struct(nr)
}

// UpdateReview defines what information may be provided to modify an existing Review.
type UpdateReview struct {
	AuthorName string `json:"author_name" validate:"omitempty,max=100"`
	Rating     *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Text       string `json:"text" validate:"omitempty,max=2000"`
	Featured   *bool  `json:"featured"`
}

func (ur *UpdateReview) Validate(_ context.Context, orig Review, validate *validator.Validate) error {
	if ur.AuthorName = core.CleanString(ur.AuthorName); ur.AuthorName == "" {
		ur.AuthorName = orig.AuthorName
	}
	if ur.Text = core.CleanString(ur.Text); ur.Text == "" {
		ur.Text = orig.Text
	}
	return validate.Struct(ur)
}

func (ur UpdateReview) apply(orig Review) Review {
	rev := orig
	rev.AuthorName = ur.AuthorName
	rev.Text = ur.Text
	if ur.Rating != nil {
		rev.Rating = *ur.Rating
	}
	if ur.Featured != nil {
		rev.Featured = *ur.Featured
	}
	return rev
}
