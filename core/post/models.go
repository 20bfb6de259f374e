package post

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

// Status is the publication state of a Post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

var Statuses = []Status{StatusDraft, StatusPublished, StatusArchived}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Author    string    `json:"author"`
	AuthorID  int       `json:"author_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (p Post) IsPublished() bool { return p.Status == StatusPublished }

// NewPost contains information needed to create a new Post.
type NewPost struct {
	Title    string   `json:"title" validate:"required,notblank"`
	Slug     string   `json:"slug" validate:"required,slug"`
	Content  string   `json:"content" validate:"required,notblank"`
	Status   Status   `json:"status" validate:"required,poststatus"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Author   string   `json:"-"`
	AuthorID int      `json:"-"`
}

func (np *NewPost) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	np.Title = core.CleanString(np.Title)
	if np.Slug = core.CleanString(np.Slug, true /* lower */); np.Slug == "" {
		np.Slug = core.Slugify(np.Title)
	}
	if np.Status = Status(core.CleanString(string(np.Status), true /* lower */)); np.Status == "" {
		np.Status = StatusDraft
	}
	np.Category = core.CleanString(np.Category)
	np.Tags = core.CleanStrings(np.Tags)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ctx, np.Slug)
}

// UpdatePost defines what information may be provided to modify an existing Post.
// Zero values keep the original ones.
type UpdatePost struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug" validate:"omitempty,slug"`
	Content  string   `json:"content"`
	Status   Status   `json:"status" validate:"omitempty,poststatus"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
}

func (up *UpdatePost) Validate(ctx context.Context, orig Post, validate *validator.Validate, svc ServiceInterface) error {
	if up.Title = core.CleanString(up.Title); up.Title == "" {
		up.Title = orig.Title
	}
	if up.Slug = core.CleanString(up.Slug, true /* lower */); up.Slug == "" {
		up.Slug = orig.Slug
	}
	if strings.TrimSpace(up.Content) == "" {
		up.Content = orig.Content
	}
	if up.Status = Status(core.CleanString(string(up.Status), true /* lower */)); up.Status == "" {
		up.Status = orig.Status
	}
	if up.Tags != nil {
		up.Tags = core.CleanStrings(up.Tags)
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ctx, up.Slug, orig)
}

func (up UpdatePost) apply(orig Post) Post {
	p := orig
	p.Title = up.Title
	p.Slug = up.Slug
	p.Content = up.Content
	p.Status = up.Status
	if up.Category != nil {
		p.Category = core.CleanString(*up.Category)
	}
	if up.Tags != nil {
		p.Tags = up.Tags
	}
	return p
}

type QueryFilter struct {
	Search string `query:"search"`
	Status Status `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
	if !qf.Status.IsValid() {
		qf.Status = ""
	}
}

// Match reports whether `p` passes the filter.
// Search does a case-insensitive match on one of Title, Content, Category or Author.
func (qf QueryFilter) Match(p Post) bool {
	if qf.Status != "" && p.Status != qf.Status {
		return false
	}
	if qf.Search == "" {
		return true
	}
	s := strings.ToLower(qf.Search)
	for _, field := range []string{p.Title, p.Content, p.Category, p.Author} {
		if strings.Contains(strings.ToLower(field), s) {
			return true
		}
	}
	return false
}
