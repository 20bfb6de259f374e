package sqlxdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursehub/core/post"
)

type postRow struct {
	ID        int            `db:"id"`
	Title     string         `db:"title"`
	Slug      string         `db:"slug"`
	Content   string         `db:"content"`
	Status    string         `db:"status"`
	Category  string         `db:"category"`
	Tags      pq.StringArray `db:"tags"`
	Author    string         `db:"author"`
	AuthorID  null.Int       `db:"author_id"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toPostRow(p post.Post) postRow {
	return postRow{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Content:   p.Content,
		Status:    string(p.Status),
		Category:  p.Category,
		Tags:      stringArray(p.Tags),
		Author:    p.Author,
		AuthorID:  null.NewInt(p.AuthorID, p.AuthorID != 0),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (r postRow) toPost() post.Post {
	return post.Post{
		ID:        r.ID,
		Title:     r.Title,
		Slug:      r.Slug,
		Content:   r.Content,
		Status:    post.Status(r.Status),
		Category:  r.Category,
		Tags:      fromStringArray(r.Tags),
		Author:    r.Author,
		AuthorID:  r.AuthorID.Int,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const postColumns = `id, title, slug, content, status, category, tags, author, author_id, created_at, updated_at`

type postRepository struct {
	db *sqlx.DB
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) post.Repository {
	return &postRepository{db: db}
}

func (repo *postRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...post.Post) error {
	ids := make([]int, 0, len(excluded))
	for _, p := range excluded {
		ids = append(ids, p.ID)
	}
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM post WHERE slug = $1 AND NOT (id = ANY($2)))`, slug, intArray(ids))
	if err != nil {
		return errors.Wrap(err, "checking post slug uniqueness")
	}
	if exists {
		return post.ErrSlugExists
	}
	return nil
}

func (repo *postRepository) Create(ctx context.Context, p post.Post) (post.Post, error) {
	var row postRow
	q, args, err := repo.db.BindNamed(`
		INSERT INTO post (title, slug, content, status, category, tags, author, author_id, created_at, updated_at)
		VALUES (:title, :slug, :content, :status, :category, :tags, :author, :author_id, :created_at, :updated_at)
		RETURNING `+postColumns, toPostRow(p))
	if err != nil {
		return post.Post{}, errors.Wrap(err, "binding post")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return post.Post{}, post.ErrSlugExists
		}
		return post.Post{}, errors.Wrap(err, "inserting post")
	}
	return row.toPost(), nil
}

func (repo *postRepository) List(ctx context.Context, filter post.QueryFilter) ([]post.Post, error) {
	var rows []postRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+postColumns+` FROM post
		WHERE ($1::text = '' OR status = $1)
			AND ($2::text = '' OR title ILIKE $3 OR content ILIKE $3 OR category ILIKE $3 OR author ILIKE $3)
		ORDER BY created_at DESC, id DESC`,
		string(filter.Status), filter.Search, like(filter.Search))
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	posts := make([]post.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toPost())
	}
	return posts, nil
}

func (repo *postRepository) get(ctx context.Context, where string, arg interface{}) (post.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+postColumns+` FROM post WHERE `+where+` = $1`, arg); err != nil {
		return post.Post{}, trapNoRowsErr(err, post.ErrNotFound, "finding post")
	}
	return row.toPost(), nil
}

func (repo *postRepository) Get(ctx context.Context, id int) (post.Post, error) {
	return repo.get(ctx, "id", id)
}

func (repo *postRepository) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	return repo.get(ctx, "slug", slug)
}

func (repo *postRepository) Update(ctx context.Context, p post.Post) (post.Post, error) {
	var row postRow
	q, args, err := repo.db.BindNamed(`
		UPDATE post SET title = :title, slug = :slug, content = :content, status = :status, category = :category,
			tags = :tags, author = :author, author_id = :author_id, updated_at = :updated_at
		WHERE id = :id
		RETURNING `+postColumns, toPostRow(p))
	if err != nil {
		return post.Post{}, errors.Wrap(err, "binding post")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return post.Post{}, post.ErrSlugExists
		}
		return post.Post{}, trapNoRowsErr(err, post.ErrNotFound, "updating post")
	}
	return row.toPost(), nil
}

func (repo *postRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM post WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return checkAffected(res, post.ErrNotFound)
}
