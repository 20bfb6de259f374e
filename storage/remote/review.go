package remote

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/review"
)

var reviewFields = []string{"Name", "authorId", "authorName", "rating", "text", "likes", "featured", "created_at"}

type reviewRecord struct {
	ID         int       `mapstructure:"Id"`
	AuthorID   int       `mapstructure:"authorId"`
	AuthorName string    `mapstructure:"authorName"`
	Rating     int       `mapstructure:"rating"`
	Text       string    `mapstructure:"text"`
	Likes      string    `mapstructure:"likes"` // comma separated account IDs
	Featured   bool      `mapstructure:"featured"`
	CreatedAt  time.Time `mapstructure:"created_at"`
}

func (r reviewRecord) toReview() review.Review {
	return review.Review{
		ID:         r.ID,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Text:       r.Text,
		Likes:      splitInts(r.Likes),
		Featured:   r.Featured,
		CreatedAt:  r.CreatedAt,
	}
}

func reviewToRecord(r review.Review) Record {
	rec := Record{
		"Name":       r.AuthorName,
		"authorId":   r.AuthorID,
		"authorName": r.AuthorName,
		"rating":     r.Rating,
		"text":       r.Text,
		"likes":      joinInts(r.Likes),
		"featured":   r.Featured,
	}
	if r.ID != 0 {
		rec["Id"] = r.ID
	} else {
		rec["created_at"] = timestamp(r.CreatedAt)
	}
	return rec
}

func decodeReviews(recs []Record) ([]review.Review, error) {
	revs := make([]review.Review, 0, len(recs))
	for _, rec := range recs {
		var r reviewRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		revs = append(revs, r.toReview())
	}
	return revs, nil
}

type reviewRepository struct {
	client *Client
	likeMu sync.Mutex // guards the read-modify-write of ToggleLike
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(client *Client) review.Repository {
	return &reviewRepository{client: client}
}

func (repo *reviewRepository) fetch(ctx context.Context, q Query) ([]review.Review, error) {
	recs, err := repo.client.Fetch(ctx, tableReview, q)
	if err != nil {
		return nil, err
	}
	return decodeReviews(recs)
}

func (repo *reviewRepository) saved(rec Record, orig review.Review) (review.Review, error) {
	revs, err := decodeReviews([]Record{rec})
	if err != nil {
		return review.Review{}, err
	}
	rev := revs[0]
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = orig.CreatedAt
	}
	return rev, nil
}

func (repo *reviewRepository) Create(ctx context.Context, rev review.Review) (review.Review, error) {
	rev.ID = 0
	rec, err := repo.client.Create(ctx, tableReview, reviewToRecord(rev))
	if err != nil {
		return review.Review{}, err
	}
	return repo.saved(rec, rev)
}

func (repo *reviewRepository) List(ctx context.Context) ([]review.Review, error) {
	revs, err := repo.fetch(ctx, Query{
		Fields:  reviewFields,
		OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}},
	})
	if err != nil {
		return nil, err
	}
	review.Sort(revs)
	return revs, nil
}

func (repo *reviewRepository) ListFeatured(ctx context.Context) ([]review.Review, error) {
	revs, err := repo.fetch(ctx, Query{
		Fields:  reviewFields,
		Where:   []Where{equalTo("featured", true)},
		OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}},
	})
	if err != nil {
		return nil, err
	}
	review.SortNewest(revs)
	return revs, nil
}

func (repo *reviewRepository) Get(ctx context.Context, id int) (review.Review, error) {
	rec, err := repo.client.Get(ctx, tableReview, id, reviewFields, review.ErrNotFound)
	if err != nil {
		return review.Review{}, err
	}
	return repo.saved(rec, review.Review{})
}

// Update saves every field but the likes, which only change through ToggleLike.
func (repo *reviewRepository) Update(ctx context.Context, rev review.Review) (review.Review, error) {
	orig, err := repo.Get(ctx, rev.ID)
	if err != nil {
		return review.Review{}, err
	}
	rev.Likes = orig.Likes
	rev.CreatedAt = orig.CreatedAt
	rec, err := repo.client.Update(ctx, tableReview, reviewToRecord(rev), review.ErrNotFound)
	if err != nil {
		return review.Review{}, err
	}
	return repo.saved(rec, rev)
}

// ToggleLike reads then writes the likes of the review.
// Toggles are serialized within this process only: the record service has no atomic update,
// so toggles from other clients of the same table may still overwrite each other.
func (repo *reviewRepository) ToggleLike(ctx context.Context, id, accountID int) (review.Review, error) {
	repo.likeMu.Lock()
	defer repo.likeMu.Unlock()

	rev, err := repo.Get(ctx, id)
	if err != nil {
		return review.Review{}, err
	}
	rev.ToggleLike(accountID)
	rec, err := repo.client.Update(ctx, tableReview, Record{"Id": id, "likes": joinInts(rev.Likes)}, review.ErrNotFound)
	if err != nil {
		return review.Review{}, errors.Wrap(err, "saving likes")
	}
	if _, ok := rec["authorName"]; !ok { // partial echo of the update
		return rev, nil
	}
	return repo.saved(rec, rev)
}

func (repo *reviewRepository) Delete(ctx context.Context, id int) error {
	return repo.client.Delete(ctx, tableReview, id, review.ErrNotFound)
}
