package sqlxdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursehub/core/review"
)

type reviewRow struct {
	ID         int       `db:"id"`
	AuthorID   null.Int  `db:"author_id"`
	AuthorName string    `db:"author_name"`
	Rating     int       `db:"rating"`
	Text       string    `db:"text"`
	Featured   bool      `db:"featured"`
	CreatedAt  time.Time `db:"created_at"`
}

type likeRow struct {
	ReviewID  int `db:"review_id"`
	AccountID int `db:"account_id"`
}

func toReviewRow(r review.Review) reviewRow {
	return reviewRow{
		ID:         r.ID,
		AuthorID:   null.NewInt(r.AuthorID, r.AuthorID != 0),
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Text:       r.Text,
		Featured:   r.Featured,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (r reviewRow) toReview(likes []int) review.Review {
	if likes == nil {
		likes = []int{}
	}
	return review.Review{
		ID:         r.ID,
		AuthorID:   r.AuthorID.Int,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Text:       r.Text,
		Likes:      likes,
		Featured:   r.Featured,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

const reviewColumns = `id, author_id, author_name, rating, text, featured, created_at`

type reviewRepository struct {
	db *sqlx.DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *sqlx.DB) review.Repository {
	return &reviewRepository{db: db}
}

// likes returns the liking account IDs of each review.
func (repo *reviewRepository) likes(ctx context.Context, q sqlx.QueryerContext, ids ...int) (map[int][]int, error) {
	var rows []likeRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT review_id, account_id FROM review_like WHERE review_id = ANY($1) ORDER BY account_id`, intArray(ids))
	if err != nil {
		return nil, errors.Wrap(err, "querying review likes")
	}
	likes := make(map[int][]int, len(ids))
	for _, r := range rows {
		likes[r.ReviewID] = append(likes[r.ReviewID], r.AccountID)
	}
	return likes, nil
}

func (repo *reviewRepository) withLikes(ctx context.Context, q sqlx.QueryerContext, rows []reviewRow) ([]review.Review, error) {
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	likes, err := repo.likes(ctx, q, ids...)
	if err != nil {
		return nil, err
	}
	revs := make([]review.Review, 0, len(rows))
	for _, r := range rows {
		revs = append(revs, r.toReview(likes[r.ID]))
	}
	return revs, nil
}

func (repo *reviewRepository) Create(ctx context.Context, rev review.Review) (review.Review, error) {
	var row reviewRow
	q, args, err := repo.db.BindNamed(`
		INSERT INTO review (author_id, author_name, rating, text, featured, created_at)
		VALUES (:author_id, :author_name, :rating, :text, :featured, :created_at)
		RETURNING `+reviewColumns, toReviewRow(rev))
	if err != nil {
		return review.Review{}, errors.Wrap(err, "binding review")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return review.Review{}, errors.Wrap(err, "inserting review")
	}
	return row.toReview(nil), nil
}

func (repo *reviewRepository) list(ctx context.Context, query string) ([]review.Review, error) {
	var rows []reviewRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}
	return repo.withLikes(ctx, repo.db, rows)
}

func (repo *reviewRepository) List(ctx context.Context) ([]review.Review, error) {
	return repo.list(ctx, `SELECT `+reviewColumns+` FROM review ORDER BY featured DESC, created_at DESC, id DESC`)
}

func (repo *reviewRepository) ListFeatured(ctx context.Context) ([]review.Review, error) {
	return repo.list(ctx, `SELECT `+reviewColumns+` FROM review WHERE featured ORDER BY created_at DESC, id DESC`)
}

func (repo *reviewRepository) get(ctx context.Context, q sqlx.QueryerContext, id int) (review.Review, error) {
	var row reviewRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+reviewColumns+` FROM review WHERE id = $1`, id); err != nil {
		return review.Review{}, trapNoRowsErr(err, review.ErrNotFound, "finding review")
	}
	revs, err := repo.withLikes(ctx, q, []reviewRow{row})
	if err != nil {
		return review.Review{}, err
	}
	return revs[0], nil
}

func (repo *reviewRepository) Get(ctx context.Context, id int) (review.Review, error) {
	return repo.get(ctx, repo.db, id)
}

// Update saves every field but the likes, which only change through ToggleLike.
func (repo *reviewRepository) Update(ctx context.Context, rev review.Review) (review.Review, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE review SET author_id = :author_id, author_name = :author_name, rating = :rating, text = :text,
			featured = :featured
		WHERE id = :id`, toReviewRow(rev))
	if err != nil {
		return review.Review{}, errors.Wrap(err, "updating review")
	}
	if err = checkAffected(res, review.ErrNotFound); err != nil {
		return review.Review{}, err
	}
	return repo.Get(ctx, rev.ID)
}

func (repo *reviewRepository) ToggleLike(ctx context.Context, id, accountID int) (review.Review, error) {
	var rev review.Review
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var found int
		if err := tx.GetContext(ctx, &found, `SELECT id FROM review WHERE id = $1 FOR UPDATE`, id); err != nil {
			return trapNoRowsErr(err, review.ErrNotFound, "locking review")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM review_like WHERE review_id = $1 AND account_id = $2`, id, accountID)
		if err != nil {
			return errors.Wrap(err, "removing like")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err = tx.ExecContext(ctx, `INSERT INTO review_like (review_id, account_id) VALUES ($1, $2)`, id, accountID); err != nil {
				return errors.Wrap(err, "adding like")
			}
		}

		rev, err = repo.get(ctx, tx, id)
		return err
	})
	return rev, err
}

func (repo *reviewRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM review WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting review")
	}
	return checkAffected(res, review.ErrNotFound)
}
