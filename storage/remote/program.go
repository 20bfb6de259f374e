package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/program"
)

var programFields = []string{
	"Name", "Tags", "slug", "title", "description", "thumbnail_url", "description_short",
	"description_long", "has_common_course", "type", "price", "duration", "level", "created_at",
}

type programRecord struct {
	ID               int       `mapstructure:"Id"`
	Tags             string    `mapstructure:"Tags"`
	Slug             string    `mapstructure:"slug"`
	Title            string    `mapstructure:"title"`
	Description      string    `mapstructure:"description"`
	ThumbnailURL     string    `mapstructure:"thumbnail_url"`
	DescriptionShort string    `mapstructure:"description_short"`
	DescriptionLong  string    `mapstructure:"description_long"`
	HasCommonCourse  bool      `mapstructure:"has_common_course"`
	Type             string    `mapstructure:"type"`
	Price            float64   `mapstructure:"price"`
	Duration         string    `mapstructure:"duration"`
	Level            string    `mapstructure:"level"`
	CreatedAt        time.Time `mapstructure:"created_at"`
}

func (r programRecord) toProgram() program.Program {
	typ, _ := program.ParseType(r.Type)
	return program.Program{
		ID:               r.ID,
		Slug:             r.Slug,
		Title:            r.Title,
		Type:             typ,
		HasCommonCourse:  r.HasCommonCourse,
		Price:            r.Price,
		Duration:         r.Duration,
		Level:            r.Level,
		Description:      r.Description,
		DescriptionShort: r.DescriptionShort,
		DescriptionLong:  r.DescriptionLong,
		ThumbnailURL:     r.ThumbnailURL,
		Tags:             splitList(r.Tags),
		CreatedAt:        r.CreatedAt,
	}
}

func programToRecord(p program.Program) Record {
	rec := Record{
		"Name":              p.Title,
		"Tags":              joinList(p.Tags),
		"slug":              p.Slug,
		"title":             p.Title,
		"description":       p.Description,
		"thumbnail_url":     p.ThumbnailURL,
		"description_short": p.DescriptionShort,
		"description_long":  p.DescriptionLong,
		"has_common_course": p.HasCommonCourse,
		"type":              string(p.Type),
		"price":             p.Price,
		"duration":          p.Duration,
		"level":             p.Level,
	}
	if p.ID != 0 {
		rec["Id"] = p.ID
	} else {
		rec["created_at"] = timestamp(p.CreatedAt)
	}
	return rec
}

func decodePrograms(recs []Record) ([]program.Program, error) {
	progs := make([]program.Program, 0, len(recs))
	for _, rec := range recs {
		var r programRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		progs = append(progs, r.toProgram())
	}
	return progs, nil
}

type programRepository struct {
	client *Client
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(client *Client) program.Repository {
	return &programRepository{client: client}
}

func (repo *programRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...program.Program) error {
	progs, err := repo.fetch(ctx, lookup(programFields, "slug", slug))
	if err != nil {
		return errors.Wrap(err, "checking slug")
	}
	excl := make(map[int]bool, len(excluded))
	for _, p := range excluded {
		excl[p.ID] = true
	}
	for _, p := range progs {
		if !excl[p.ID] {
			return program.ErrSlugExists
		}
	}
	return nil
}

func (repo *programRepository) fetch(ctx context.Context, q Query) ([]program.Program, error) {
	recs, err := repo.client.Fetch(ctx, tableProgram, q)
	if err != nil {
		return nil, err
	}
	return decodePrograms(recs)
}

func (repo *programRepository) save(ctx context.Context, prog program.Program) (program.Program, error) {
	var rec Record
	var err error
	if prog.ID == 0 {
		rec, err = repo.client.Create(ctx, tableProgram, programToRecord(prog))
	} else {
		rec, err = repo.client.Update(ctx, tableProgram, programToRecord(prog), program.ErrNotFound)
	}
	if err != nil {
		return program.Program{}, err
	}
	progs, err := decodePrograms([]Record{rec})
	if err != nil {
		return program.Program{}, err
	}
	saved := progs[0]
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = prog.CreatedAt
	}
	return saved, nil
}

func (repo *programRepository) Create(ctx context.Context, prog program.Program) (program.Program, error) {
	prog.ID = 0
	return repo.save(ctx, prog)
}

func (repo *programRepository) List(ctx context.Context, filter program.QueryFilter) ([]program.Program, error) {
	q := Query{Fields: programFields, OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}}}
	if filter.Type != "" {
		q.Where = append(q.Where, equalTo("type", string(filter.Type)))
	}
	progs, err := repo.fetch(ctx, q)
	if err != nil || filter.Search == "" {
		return progs, err
	}
	filtered := make([]program.Program, 0, len(progs))
	for _, p := range progs {
		if filter.Match(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (repo *programRepository) Get(ctx context.Context, id int) (program.Program, error) {
	rec, err := repo.client.Get(ctx, tableProgram, id, programFields, program.ErrNotFound)
	if err != nil {
		return program.Program{}, err
	}
	progs, err := decodePrograms([]Record{rec})
	if err != nil {
		return program.Program{}, err
	}
	return progs[0], nil
}

func (repo *programRepository) GetBySlug(ctx context.Context, slug string) (program.Program, error) {
	progs, err := repo.fetch(ctx, lookup(programFields, "slug", slug))
	if err != nil {
		return program.Program{}, err
	}
	if len(progs) == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return progs[0], nil
}

func (repo *programRepository) Update(ctx context.Context, prog program.Program) (program.Program, error) {
	if prog.ID == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return repo.save(ctx, prog)
}

// Delete removes the program and its lectures.
func (repo *programRepository) Delete(ctx context.Context, id int) error {
	if err := repo.client.Delete(ctx, tableProgram, id, program.ErrNotFound); err != nil {
		return err
	}
	lecs, err := repo.client.Fetch(ctx, tableLecture, Query{Fields: []string{"Id"}, Where: []Where{equalTo("programId", id)}})
	if err != nil {
		return errors.Wrap(err, "fetching program lectures")
	}
	for _, rec := range lecs {
		var r struct {
			ID int `mapstructure:"Id"`
		}
		if err = decode(rec, &r); err != nil {
			return err
		}
		if err = repo.client.Delete(ctx, tableLecture, r.ID, lecture.ErrNotFound); err != nil && !core.IsNotFound(err) {
			return errors.Wrapf(err, "deleting lecture %d", r.ID)
		}
	}
	return nil
}
