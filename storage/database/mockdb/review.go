package mockdb

import (
	"context"

	"github.com/trezcool/coursehub/core/review"
)

type reviewRepository struct {
	db *DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *DB) review.Repository {
	return &reviewRepository{db: db}
}

func copyReview(r review.Review) review.Review {
	r.Likes = copyInts(r.Likes)
	return r
}

// query must be called with the table lock held.
func (repo *reviewRepository) query(featuredOnly bool) []review.Review {
	tbl := repo.db.review
	revs := make([]review.Review, 0, len(tbl.table))
	for _, r := range tbl.table {
		if !featuredOnly || r.Featured {
			revs = append(revs, copyReview(*r))
		}
	}
	return revs
}

func (repo *reviewRepository) Create(ctx context.Context, rev review.Review) (review.Review, error) {
	if err := repo.db.wait(ctx); err != nil {
		return review.Review{}, err
	}
	tbl := repo.db.review
	tbl.Lock()
	defer tbl.Unlock()
	return repo.insert(rev), nil
}

// insert must be called with the table write lock held.
func (repo *reviewRepository) insert(rev review.Review) review.Review {
	tbl := repo.db.review
	tbl.pk++
	rev.ID = tbl.pk
	stored := copyReview(rev)
	tbl.table[rev.ID] = &stored
	return copyReview(rev)
}

func (repo *reviewRepository) List(ctx context.Context) ([]review.Review, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.review
	tbl.RLock()
	defer tbl.RUnlock()

	revs := repo.query(false)
	review.Sort(revs)
	return revs, nil
}

func (repo *reviewRepository) ListFeatured(ctx context.Context) ([]review.Review, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.review
	tbl.RLock()
	defer tbl.RUnlock()

	revs := repo.query(true)
	review.SortNewest(revs)
	return revs, nil
}

func (repo *reviewRepository) Get(ctx context.Context, id int) (review.Review, error) {
	if err := repo.db.wait(ctx); err != nil {
		return review.Review{}, err
	}
	tbl := repo.db.review
	tbl.RLock()
	defer tbl.RUnlock()

	if r, ok := tbl.table[id]; ok {
		return copyReview(*r), nil
	}
	return review.Review{}, review.ErrNotFound
}

// Update saves every field but the likes, which only change through ToggleLike.
func (repo *reviewRepository) Update(ctx context.Context, rev review.Review) (review.Review, error) {
	if err := repo.db.wait(ctx); err != nil {
		return review.Review{}, err
	}
	tbl := repo.db.review
	tbl.Lock()
	defer tbl.Unlock()

	orig, ok := tbl.table[rev.ID]
	if !ok {
		return review.Review{}, review.ErrNotFound
	}
	rev.Likes = orig.Likes
	rev.CreatedAt = orig.CreatedAt
	stored := copyReview(rev)
	tbl.table[rev.ID] = &stored
	return copyReview(rev), nil
}

func (repo *reviewRepository) ToggleLike(ctx context.Context, id, accountID int) (review.Review, error) {
	if err := repo.db.wait(ctx); err != nil {
		return review.Review{}, err
	}
	tbl := repo.db.review
	tbl.Lock()
	defer tbl.Unlock()

	r, ok := tbl.table[id]
	if !ok {
		return review.Review{}, review.ErrNotFound
	}
	r.ToggleLike(accountID)
	return copyReview(*r), nil
}

func (repo *reviewRepository) Delete(ctx context.Context, id int) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.review
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return review.ErrNotFound
	}
	delete(tbl.table, id)
	return nil
}
