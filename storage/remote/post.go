package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/post"
)

var postFields = []string{
	"Name", "Tags", "title", "slug", "content", "status", "category", "author", "authorId", "created_at", "updated_at",
}

type postRecord struct {
	ID        int       `mapstructure:"Id"`
	Tags      string    `mapstructure:"Tags"`
	Title     string    `mapstructure:"title"`
	Slug      string    `mapstructure:"slug"`
	Content   string    `mapstructure:"content"`
	Status    string    `mapstructure:"status"`
	Category  string    `mapstructure:"category"`
	Author    string    `mapstructure:"author"`
	AuthorID  int       `mapstructure:"authorId"`
	CreatedAt time.Time `mapstructure:"created_at"`
	UpdatedAt time.Time `mapstructure:"updated_at"`
}

func (r postRecord) toPost() post.Post {
	status := post.Status(r.Status)
	if !status.IsValid() {
		status = post.StatusDraft
	}
	return post.Post{
		ID:        r.ID,
		Title:     r.Title,
		Slug:      r.Slug,
		Content:   r.Content,
		Status:    status,
		Category:  r.Category,
		Tags:      splitList(r.Tags),
		Author:    r.Author,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func postToRecord(p post.Post) Record {
	rec := Record{
		"Name":       p.Title,
		"Tags":       joinList(p.Tags),
		"title":      p.Title,
		"slug":       p.Slug,
		"content":    p.Content,
		"status":     string(p.Status),
		"category":   p.Category,
		"author":     p.Author,
		"authorId":   p.AuthorID,
		"updated_at": timestamp(p.UpdatedAt),
	}
	if p.ID != 0 {
		rec["Id"] = p.ID
	} else {
		rec["created_at"] = timestamp(p.CreatedAt)
	}
	return rec
}

func decodePosts(recs []Record) ([]post.Post, error) {
	posts := make([]post.Post, 0, len(recs))
	for _, rec := range recs {
		var r postRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		posts = append(posts, r.toPost())
	}
	return posts, nil
}

type postRepository struct {
	client *Client
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(client *Client) post.Repository {
	return &postRepository{client: client}
}

func (repo *postRepository) fetch(ctx context.Context, q Query) ([]post.Post, error) {
	recs, err := repo.client.Fetch(ctx, tablePost, q)
	if err != nil {
		return nil, err
	}
	return decodePosts(recs)
}

func (repo *postRepository) saved(rec Record, orig post.Post) (post.Post, error) {
	posts, err := decodePosts([]Record{rec})
	if err != nil {
		return post.Post{}, err
	}
	p := posts[0]
	if p.CreatedAt.IsZero() {
		p.CreatedAt = orig.CreatedAt
	}
	return p, nil
}

func (repo *postRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...post.Post) error {
	posts, err := repo.fetch(ctx, lookup(postFields, "slug", slug))
	if err != nil {
		return errors.Wrap(err, "checking slug")
	}
	excl := make(map[int]bool, len(excluded))
	for _, p := range excluded {
		excl[p.ID] = true
	}
	for _, p := range posts {
		if !excl[p.ID] {
			return post.ErrSlugExists
		}
	}
	return nil
}

func (repo *postRepository) Create(ctx context.Context, p post.Post) (post.Post, error) {
	p.ID = 0
	rec, err := repo.client.Create(ctx, tablePost, postToRecord(p))
	if err != nil {
		return post.Post{}, err
	}
	return repo.saved(rec, p)
}

func (repo *postRepository) List(ctx context.Context, filter post.QueryFilter) ([]post.Post, error) {
	q := Query{Fields: postFields, OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}}}
	if filter.Status != "" {
		q.Where = []Where{equalTo("status", string(filter.Status))}
	}
	posts, err := repo.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	filtered := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		if filter.Match(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (repo *postRepository) Get(ctx context.Context, id int) (post.Post, error) {
	rec, err := repo.client.Get(ctx, tablePost, id, postFields, post.ErrNotFound)
	if err != nil {
		return post.Post{}, err
	}
	return repo.saved(rec, post.Post{})
}

func (repo *postRepository) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	posts, err := repo.fetch(ctx, lookup(postFields, "slug", slug))
	if err != nil {
		return post.Post{}, err
	}
	if len(posts) == 0 {
		return post.Post{}, post.ErrNotFound
	}
	return posts[0], nil
}

func (repo *postRepository) Update(ctx context.Context, p post.Post) (post.Post, error) {
	if p.ID == 0 {
		return post.Post{}, post.ErrNotFound
	}
	rec, err := repo.client.Update(ctx, tablePost, postToRecord(p), post.ErrNotFound)
	if err != nil {
		return post.Post{}, err
	}
	return repo.saved(rec, p)
}

func (repo *postRepository) Delete(ctx context.Context, id int) error {
	return repo.client.Delete(ctx, tablePost, id, post.ErrNotFound)
}
