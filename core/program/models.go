package program

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

// Type is the tier of a Program.
type Type string

const (
	TypeMember Type = "member"
	TypeMaster Type = "master"
)

var Types = []Type{TypeMember, TypeMaster}

// ParseType maps a raw value to a Type. ok is false for unknown values.
func ParseType(s string) (t Type, ok bool) {
	switch Type(core.CleanString(s, true /* lower */)) {
	case TypeMember:
		return TypeMember, true
	case TypeMaster:
		return TypeMaster, true
	}
	return "", false
}

func (t Type) IsValid() bool {
	_, ok := ParseType(string(t))
	return ok
}

type Program struct {
	ID               int       `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Type             Type      `json:"type"`
	HasCommonCourse  bool      `json:"has_common_course"`
	Price            float64   `json:"price"`
	Duration         string    `json:"duration"`
	Level            string    `json:"level"`
	Description      string    `json:"description"`
	DescriptionShort string    `json:"description_short"`
	DescriptionLong  string    `json:"description_long"`
	ThumbnailURL     string    `json:"thumbnail_url"`
	Tags             []string  `json:"tags"`
	CreatedAt        time.Time `json:"created_at"` // UTC
}

func (p Program) IsMaster() bool { return p.Type == TypeMaster }

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Slug             string   `json:"slug" validate:"required,slug"`
	Title            string   `json:"title" validate:"required,notblank"`
	Type             Type     `json:"type" validate:"required,programtype"`
	HasCommonCourse  bool     `json:"has_common_course"`
	Price            float64  `json:"price" validate:"gte=0"`
	Duration         string   `json:"duration"`
	Level            string   `json:"level"`
	Description      string   `json:"description"`
	DescriptionShort string   `json:"description_short"`
	DescriptionLong  string   `json:"description_long"`
	ThumbnailURL     string   `json:"thumbnail_url" validate:"omitempty,httpsurl"`
	Tags             []string `json:"tags"`
}

// Validate cleans `np`, derives a slug from the title if none was given, and checks its uniqueness.
func (np *NewProgram) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	np.Title = core.CleanString(np.Title)
	np.Slug = core.CleanString(np.Slug, true /* lower */)
	if np.Slug == "" {
		np.Slug = core.Slugify(np.Title)
	}
	np.Type = Type(core.CleanString(string(np.Type), true /* lower */))
	np.ThumbnailURL = core.CleanString(np.ThumbnailURL)
	np.Tags = core.CleanStrings(np.Tags)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ctx, np.Slug)
}

// UpdateProgram defines what information may be provided to modify an existing Program.
// Zero values keep the original ones.
type UpdateProgram struct {
	Slug             string   `json:"slug" validate:"omitempty,slug"`
	Title            string   `json:"title"`
	Type             Type     `json:"type" validate:"omitempty,programtype"`
	HasCommonCourse  *bool    `json:"has_common_course"`
	Price            *float64 `json:"price" validate:"omitempty,gte=0"`
	Duration         string   `json:"duration"`
	Level            string   `json:"level"`
	Description      *string  `json:"description"`
	DescriptionShort *string  `json:"description_short"`
	DescriptionLong  *string  `json:"description_long"`
	ThumbnailURL     string   `json:"thumbnail_url" validate:"omitempty,httpsurl"`
	Tags             []string `json:"tags"`
}

func (up *UpdateProgram) Validate(ctx context.Context, orig Program, validate *validator.Validate, svc ServiceInterface) error {
	up.Title = firstNonBlank(core.CleanString(up.Title), orig.Title)
	up.Slug = firstNonBlank(core.CleanString(up.Slug, true /* lower */), orig.Slug)
	up.Type = Type(firstNonBlank(core.CleanString(string(up.Type), true /* lower */), string(orig.Type)))
	up.Duration = firstNonBlank(core.CleanString(up.Duration), orig.Duration)
	up.Level = firstNonBlank(core.CleanString(up.Level), orig.Level)
	up.ThumbnailURL = firstNonBlank(core.CleanString(up.ThumbnailURL), orig.ThumbnailURL)
	if up.Tags != nil {
		up.Tags = core.CleanStrings(up.Tags)
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ctx, up.Slug, orig)
}

// apply returns `orig` with the changes of `up` applied.
func (up UpdateProgram) apply(orig Program) Program {
	prog := orig
	prog.Slug = up.Slug
	prog.Title = up.Title
	prog.Type = up.Type
	prog.Duration = up.Duration
	prog.Level = up.Level
	prog.ThumbnailURL = up.ThumbnailURL
	if up.HasCommonCourse != nil {
		prog.HasCommonCourse = *up.HasCommonCourse
	}
	if up.Price != nil {
		prog.Price = *up.Price
	}
	if up.Description != nil {
		prog.Description = *up.Description
	}
	if up.DescriptionShort != nil {
		prog.DescriptionShort = *up.DescriptionShort
	}
	if up.DescriptionLong != nil {
		prog.DescriptionLong = *up.DescriptionLong
	}
	if up.Tags != nil {
		prog.Tags = up.Tags
	}
	return prog
}

type QueryFilter struct {
	Type   Type   `query:"type"`
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if t, ok := ParseType(string(qf.Type)); ok {
		qf.Type = t
	} else {
		qf.Type = ""
	}
}

func (qf QueryFilter) IsEmpty() bool { return qf.Type == "" && qf.Search == "" }

// Match reports whether `prog` passes the filter.
// Search does a case-insensitive match on one of Title, Slug or DescriptionShort.
func (qf QueryFilter) Match(prog Program) bool {
	if qf.Type != "" && prog.Type != qf.Type {
		return false
	}
	if qf.Search == "" {
		return true
	}
	s := strings.ToLower(qf.Search)
	return strings.Contains(strings.ToLower(prog.Title), s) ||
		strings.Contains(prog.Slug, s) ||
		strings.Contains(strings.ToLower(prog.DescriptionShort), s)
}

func firstNonBlank(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
