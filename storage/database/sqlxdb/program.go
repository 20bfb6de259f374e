package sqlxdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/program"
)

type programRow struct {
	ID               int            `db:"id"`
	Slug             string         `db:"slug"`
	Title            string         `db:"title"`
	Type             string         `db:"type"`
	HasCommonCourse  bool           `db:"has_common_course"`
	Price            float64        `db:"price"`
	Duration         string         `db:"duration"`
	Level            string         `db:"level"`
	Description      string         `db:"description"`
	DescriptionShort string         `db:"description_short"`
	DescriptionLong  string         `db:"description_long"`
	ThumbnailURL     string         `db:"thumbnail_url"`
	Tags             pq.StringArray `db:"tags"`
	CreatedAt        time.Time      `db:"created_at"`
}

func toProgramRow(p program.Program) programRow {
	return programRow{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title,
		Type:             string(p.Type),
		HasCommonCourse:  p.HasCommonCourse,
		Price:            p.Price,
		Duration:         p.Duration,
		Level:            p.Level,
		Description:      p.Description,
		DescriptionShort: p.DescriptionShort,
		DescriptionLong:  p.DescriptionLong,
		ThumbnailURL:     p.ThumbnailURL,
		Tags:             stringArray(p.Tags),
		CreatedAt:        p.CreatedAt.UTC(),
	}
}

func (r programRow) toProgram() program.Program {
	return program.Program{
		ID:               r.ID,
		Slug:             r.Slug,
		Title:            r.Title,
		Type:             program.Type(r.Type),
		HasCommonCourse:  r.HasCommonCourse,
		Price:            r.Price,
		Duration:         r.Duration,
		Level:            r.Level,
		Description:      r.Description,
		DescriptionShort: r.DescriptionShort,
		DescriptionLong:  r.DescriptionLong,
		ThumbnailURL:     r.ThumbnailURL,
		Tags:             fromStringArray(r.Tags),
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

const programColumns = `id, slug, title, type, has_common_course, price, duration, level, description,
	description_short, description_long, thumbnail_url, tags, created_at`

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *sqlx.DB) program.Repository {
	return &programRepository{db: db}
}

func (repo *programRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...program.Program) error {
	ids := make([]int, 0, len(excluded))
	for _, p := range excluded {
		ids = append(ids, p.ID)
	}
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM program WHERE slug = $1 AND NOT (id = ANY($2)))`, slug, intArray(ids))
	if err != nil {
		return errors.Wrap(err, "checking program slug uniqueness")
	}
	if exists {
		return program.ErrSlugExists
	}
	return nil
}

func (repo *programRepository) Create(ctx context.Context, prog program.Program) (program.Program, error) {
	var row programRow
	q, args, err := repo.db.BindNamed(`
		INSERT INTO program (slug, title, type, has_common_course, price, duration, level, description,
			description_short, description_long, thumbnail_url, tags, created_at)
		VALUES (:slug, :title, :type, :has_common_course, :price, :duration, :level, :description,
			:description_short, :description_long, :thumbnail_url, :tags, :created_at)
		RETURNING `+programColumns, toProgramRow(prog))
	if err != nil {
		return program.Program{}, errors.Wrap(err, "binding program")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return program.Program{}, program.ErrSlugExists
		}
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return row.toProgram(), nil
}

func (repo *programRepository) List(ctx context.Context, filter program.QueryFilter) ([]program.Program, error) {
	var rows []programRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+programColumns+` FROM program
		WHERE ($1::text = '' OR type = $1)
			AND ($2::text = '' OR title ILIKE $3 OR slug ILIKE $3 OR description_short ILIKE $3)
		ORDER BY created_at DESC, id DESC`,
		string(filter.Type), filter.Search, like(filter.Search))
	if err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	progs := make([]program.Program, 0, len(rows))
	for _, r := range rows {
		progs = append(progs, r.toProgram())
	}
	return progs, nil
}

func (repo *programRepository) get(ctx context.Context, where string, arg interface{}) (program.Program, error) {
	var row programRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+programColumns+` FROM program WHERE `+where, arg)
	if err != nil {
		return program.Program{}, trapNoRowsErr(err, program.ErrNotFound, "finding program")
	}
	return row.toProgram(), nil
}

func (repo *programRepository) Get(ctx context.Context, id int) (program.Program, error) {
	return repo.get(ctx, "id = $1", id)
}

func (repo *programRepository) GetBySlug(ctx context.Context, slug string) (program.Program, error) {
	return repo.get(ctx, "slug = $1", slug)
}

func (repo *programRepository) Update(ctx context.Context, prog program.Program) (program.Program, error) {
	var row programRow
	q, args, err := repo.db.BindNamed(`
		UPDATE program SET slug = :slug, title = :title, type = :type, has_common_course = :has_common_course,
			price = :price, duration = :duration, level = :level, description = :description,
			description_short = :description_short, description_long = :description_long,
			thumbnail_url = :thumbnail_url, tags = :tags
		WHERE id = :id
		RETURNING `+programColumns, toProgramRow(prog))
	if err != nil {
		return program.Program{}, errors.Wrap(err, "binding program")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return program.Program{}, program.ErrSlugExists
		}
		return program.Program{}, trapNoRowsErr(err, program.ErrNotFound, "updating program")
	}
	return row.toProgram(), nil
}

// Delete removes the program; its lectures go with it (ON DELETE CASCADE).
func (repo *programRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM program WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return checkAffected(res, program.ErrNotFound)
}
