package sqlxdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/waitlist"
)

type waitlistRow struct {
	ID          int       `db:"id"`
	Email       string    `db:"email"`
	ProgramSlug string    `db:"program_slug"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r waitlistRow) toEntry() waitlist.Entry {
	return waitlist.Entry{ID: r.ID, Email: r.Email, ProgramSlug: r.ProgramSlug, CreatedAt: r.CreatedAt.UTC()}
}

const waitlistColumns = `id, email, program_slug, created_at`

type waitlistRepository struct {
	db *sqlx.DB
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(db *sqlx.DB) waitlist.Repository {
	return &waitlistRepository{db: db}
}

func (repo *waitlistRepository) Create(ctx context.Context, entry waitlist.Entry) (waitlist.Entry, error) {
	var row waitlistRow
	q, args, err := repo.db.BindNamed(`
		INSERT INTO waitlist (email, program_slug, created_at) VALUES (:email, :program_slug, :created_at)
		RETURNING `+waitlistColumns, waitlistRow{
		Email:       entry.Email,
		ProgramSlug: entry.ProgramSlug,
		CreatedAt:   entry.CreatedAt.UTC(),
	})
	if err != nil {
		return waitlist.Entry{}, errors.Wrap(err, "binding waitlist entry")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return waitlist.Entry{}, waitlist.ErrAlreadyOnWaitlist
		}
		return waitlist.Entry{}, errors.Wrap(err, "inserting waitlist entry")
	}
	return row.toEntry(), nil
}

func (repo *waitlistRepository) Exists(ctx context.Context, email, programSlug string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM waitlist WHERE email = $1 AND program_slug = $2)`, email, programSlug)
	return exists, errors.Wrap(err, "checking waitlist entry")
}

func (repo *waitlistRepository) List(ctx context.Context, filter waitlist.QueryFilter) ([]waitlist.Entry, error) {
	var rows []waitlistRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+waitlistColumns+` FROM waitlist
		WHERE ($1::text = '' OR program_slug = $1)
		ORDER BY created_at DESC, id DESC`, filter.ProgramSlug)
	if err != nil {
		return nil, errors.Wrap(err, "querying waitlist")
	}
	entries := make([]waitlist.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func (repo *waitlistRepository) Get(ctx context.Context, id int) (waitlist.Entry, error) {
	var row waitlistRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+waitlistColumns+` FROM waitlist WHERE id = $1`, id); err != nil {
		return waitlist.Entry{}, trapNoRowsErr(err, waitlist.ErrNotFound, "finding waitlist entry")
	}
	return row.toEntry(), nil
}

func (repo *waitlistRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM waitlist WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting waitlist entry")
	}
	return checkAffected(res, waitlist.ErrNotFound)
}
