package sqlxdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursehub/core/lecture"
)

type lectureRow struct {
	ID           int            `db:"id"`
	ProgramID    int            `db:"program_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Category     string         `db:"category"`
	Level        string         `db:"level"`
	CohortNumber null.Int       `db:"cohort_number"`
	Order        int            `db:"order"`
	Duration     int            `db:"duration"`
	Content      string         `db:"content"`
	VideoURL     string         `db:"video_url"`
	Tags         pq.StringArray `db:"tags"`
	CreatedAt    time.Time      `db:"created_at"`
}

func toLectureRow(l lecture.Lecture) lectureRow {
	return lectureRow{
		ID:           l.ID,
		ProgramID:    l.ProgramID,
		Title:        l.Title,
		Description:  l.Description,
		Category:     l.Category,
		Level:        string(l.Level),
		CohortNumber: null.IntFromPtr(l.CohortNumber),
		Order:        l.Order,
		Duration:     l.Duration,
		Content:      l.Content,
		VideoURL:     l.VideoURL,
		Tags:         stringArray(l.Tags),
		CreatedAt:    l.CreatedAt.UTC(),
	}
}

func (r lectureRow) toLecture() lecture.Lecture {
	return lecture.Lecture{
		ID:           r.ID,
		ProgramID:    r.ProgramID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Level:        lecture.Level(r.Level),
		CohortNumber: r.CohortNumber.Ptr(),
		Order:        r.Order,
		Duration:     r.Duration,
		Content:      r.Content,
		VideoURL:     r.VideoURL,
		Tags:         fromStringArray(r.Tags),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func toLectures(rows []lectureRow) []lecture.Lecture {
	lecs := make([]lecture.Lecture, 0, len(rows))
	for _, r := range rows {
		lecs = append(lecs, r.toLecture())
	}
	return lecs
}

const lectureColumns = `id, program_id, title, description, category, level, cohort_number, "order", duration,
	content, video_url, tags, created_at`

type lectureRepository struct {
	db *sqlx.DB
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(db *sqlx.DB) lecture.Repository {
	return &lectureRepository{db: db}
}

func (repo *lectureRepository) Create(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	var row lectureRow
	q, args, err := repo.db.BindNamed(`
		INSERT INTO lecture (program_id, title, description, category, level, cohort_number, "order", duration,
			content, video_url, tags, created_at)
		VALUES (:program_id, :title, :description, :category, :level, :cohort_number, :order, :duration,
			:content, :video_url, :tags, :created_at)
		RETURNING `+lectureColumns, toLectureRow(lec))
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "binding lecture")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "inserting lecture")
	}
	return row.toLecture(), nil
}

func (repo *lectureRepository) List(ctx context.Context) ([]lecture.Lecture, error) {
	var rows []lectureRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT `+lectureColumns+` FROM lecture ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying lectures")
	}
	return toLectures(rows), nil
}

func (repo *lectureRepository) ListByProgram(ctx context.Context, programID int) ([]lecture.Lecture, error) {
	var rows []lectureRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+lectureColumns+` FROM lecture WHERE program_id = $1 ORDER BY "order", id`, programID)
	if err != nil {
		return nil, errors.Wrap(err, "querying program lectures")
	}
	return toLectures(rows), nil
}

func (repo *lectureRepository) Get(ctx context.Context, id int) (lecture.Lecture, error) {
	var row lectureRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+lectureColumns+` FROM lecture WHERE id = $1`, id)
	if err != nil {
		return lecture.Lecture{}, trapNoRowsErr(err, lecture.ErrNotFound, "finding lecture")
	}
	return row.toLecture(), nil
}

func (repo *lectureRepository) Update(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	var row lectureRow
	q, args, err := repo.db.BindNamed(`
		UPDATE lecture SET program_id = :program_id, title = :title, description = :description,
			category = :category, level = :level, cohort_number = :cohort_number, "order" = :order,
			duration = :duration, content = :content, video_url = :video_url, tags = :tags
		WHERE id = :id
		RETURNING `+lectureColumns, toLectureRow(lec))
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "binding lecture")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return lecture.Lecture{}, trapNoRowsErr(err, lecture.ErrNotFound, "updating lecture")
	}
	return row.toLecture(), nil
}

func (repo *lectureRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lecture WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return checkAffected(res, lecture.ErrNotFound)
}
