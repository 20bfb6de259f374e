package mockdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursehub/core/post"
)

type postRepository struct {
	db *DB
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) post.Repository {
	return &postRepository{db: db}
}

func copyPost(p post.Post) post.Post {
	p.Tags = copyStrings(p.Tags)
	return p
}

func (repo *postRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...post.Post) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.post
	tbl.RLock()
	defer tbl.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, p := range excluded {
		excl[p.ID] = true
	}
	if repo.slugTaken(slug, excl) {
		return post.ErrSlugExists
	}
	return nil
}

// slugTaken must be called with the table lock held.
func (repo *postRepository) slugTaken(slug string, excluded map[int]bool) bool {
	for _, p := range repo.db.post.table {
		if p.Slug == slug && !excluded[p.ID] {
			return true
		}
	}
	return false
}

func (repo *postRepository) Create(ctx context.Context, p post.Post) (post.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return post.Post{}, err
	}
	tbl := repo.db.post
	tbl.Lock()
	defer tbl.Unlock()

	if repo.slugTaken(p.Slug, nil) {
		return post.Post{}, post.ErrSlugExists
	}
	return repo.insert(p), nil
}

// insert must be called with the table write lock held.
func (repo *postRepository) insert(p post.Post) post.Post {
	tbl := repo.db.post
	tbl.pk++
	p.ID = tbl.pk
	stored := copyPost(p)
	tbl.table[p.ID] = &stored
	return copyPost(p)
}

func (repo *postRepository) List(ctx context.Context, filter post.QueryFilter) ([]post.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.post
	tbl.RLock()
	defer tbl.RUnlock()

	posts := make([]post.Post, 0, len(tbl.table))
	for _, p := range tbl.table {
		if filter.Match(*p) {
			posts = append(posts, copyPost(*p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (repo *postRepository) Get(ctx context.Context, id int) (post.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return post.Post{}, err
	}
	tbl := repo.db.post
	tbl.RLock()
	defer tbl.RUnlock()

	if p, ok := tbl.table[id]; ok {
		return copyPost(*p), nil
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return post.Post{}, err
	}
	tbl := repo.db.post
	tbl.RLock()
	defer tbl.RUnlock()

	for _, p := range tbl.table {
		if p.Slug == slug {
			return copyPost(*p), nil
		}
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) Update(ctx context.Context, p post.Post) (post.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return post.Post{}, err
	}
	tbl := repo.db.post
	tbl.Lock()
	defer tbl.Unlock()

	orig, ok := tbl.table[p.ID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	if repo.slugTaken(p.Slug, map[int]bool{p.ID: true}) {
		return post.Post{}, post.ErrSlugExists
	}
	p.CreatedAt = orig.CreatedAt
	stored := copyPost(p)
	tbl.table[p.ID] = &stored
	return copyPost(p), nil
}

func (repo *postRepository) Delete(ctx context.Context, id int) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.post
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return post.ErrNotFound
	}
	delete(tbl.table, id)
	return nil
}
