package waitlist

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

type Entry struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	ProgramSlug string    `json:"program_slug"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewEntry contains information needed to join the waitlist of a program.
type NewEntry struct {
	Email       string `json:"email" validate:"required,email"`
	ProgramSlug string `json:"program_slug" validate:"required,slug"`
}

func (ne *NewEntry) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	ne.Email = core.CleanString(ne.Email, true /* lower */)
	ne.ProgramSlug = core.CleanString(ne.ProgramSlug, true /* lower */)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	return svc.CheckProgram(ctx, ne.ProgramSlug)
}

type QueryFilter struct {
	ProgramSlug string `query:"program_slug"`
}
