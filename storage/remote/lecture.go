package remote

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/coursehub/core/lecture"
)

var lectureFields = []string{
	"Name", "Tags", "programId", "title", "description", "category", "level", "cohortNumber",
	"order", "duration", "content", "videoUrl", "created_at",
}

type lectureRecord struct {
	ID           int       `mapstructure:"Id"`
	Tags         string    `mapstructure:"Tags"`
	ProgramID    int       `mapstructure:"programId"`
	Title        string    `mapstructure:"title"`
	Description  string    `mapstructure:"description"`
	Category     string    `mapstructure:"category"`
	Level        string    `mapstructure:"level"`
	CohortNumber int       `mapstructure:"cohortNumber"`
	Order        int       `mapstructure:"order"`
	Duration     int       `mapstructure:"duration"`
	Content      string    `mapstructure:"content"`
	VideoURL     string    `mapstructure:"videoUrl"`
	CreatedAt    time.Time `mapstructure:"created_at"`
}

func (r lectureRecord) toLecture() lecture.Lecture {
	lvl, _ := lecture.ParseLevel(r.Level)
	lec := lecture.Lecture{
		ID:          r.ID,
		ProgramID:   r.ProgramID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Level:       lvl,
		Order:       r.Order,
		Duration:    r.Duration,
		Content:     r.Content,
		VideoURL:    r.VideoURL,
		Tags:        splitList(r.Tags),
		CreatedAt:   r.CreatedAt,
	}
	if r.CohortNumber > 0 {
		n := r.CohortNumber
		lec.CohortNumber = &n
	}
	return lec
}

func lectureToRecord(l lecture.Lecture) Record {
	rec := Record{
		"Name":         l.Title,
		"Tags":         joinList(l.Tags),
		"programId":    l.ProgramID,
		"title":        l.Title,
		"description":  l.Description,
		"category":     l.Category,
		"level":        string(l.Level),
		"cohortNumber": nil,
		"order":        l.Order,
		"duration":     l.Duration,
		"content":      l.Content,
		"videoUrl":     l.VideoURL,
	}
	if l.CohortNumber != nil {
		rec["cohortNumber"] = *l.CohortNumber
	}
	if l.ID != 0 {
		rec["Id"] = l.ID
	} else {
		rec["created_at"] = timestamp(l.CreatedAt)
	}
	return rec
}

func decodeLectures(recs []Record) ([]lecture.Lecture, error) {
	lecs := make([]lecture.Lecture, 0, len(recs))
	for _, rec := range recs {
		var r lectureRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		lecs = append(lecs, r.toLecture())
	}
	return lecs, nil
}

type lectureRepository struct {
	client *Client
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(client *Client) lecture.Repository {
	return &lectureRepository{client: client}
}

func (repo *lectureRepository) fetch(ctx context.Context, q Query) ([]lecture.Lecture, error) {
	recs, err := repo.client.Fetch(ctx, tableLecture, q)
	if err != nil {
		return nil, err
	}
	return decodeLectures(recs)
}

func (repo *lectureRepository) decodeOne(rec Record) (lecture.Lecture, error) {
	lecs, err := decodeLectures([]Record{rec})
	if err != nil {
		return lecture.Lecture{}, err
	}
	return lecs[0], nil
}

func (repo *lectureRepository) Create(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	lec.ID = 0
	rec, err := repo.client.Create(ctx, tableLecture, lectureToRecord(lec))
	if err != nil {
		return lecture.Lecture{}, err
	}
	saved, err := repo.decodeOne(rec)
	if err == nil && saved.CreatedAt.IsZero() {
		saved.CreatedAt = lec.CreatedAt
	}
	return saved, err
}

func (repo *lectureRepository) List(ctx context.Context) ([]lecture.Lecture, error) {
	return repo.fetch(ctx, Query{
		Fields:  lectureFields,
		OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}},
	})
}

// ListByProgram returns the lectures of a program by ascending order.
func (repo *lectureRepository) ListByProgram(ctx context.Context, programID int) ([]lecture.Lecture, error) {
	lecs, err := repo.fetch(ctx, Query{
		Fields:  lectureFields,
		Where:   []Where{equalTo("programId", programID)},
		OrderBy: []OrderBy{{FieldName: "order", SortType: sortAsc}},
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lecs, func(i, j int) bool { return lecs[i].Order < lecs[j].Order })
	return lecs, nil
}

func (repo *lectureRepository) Get(ctx context.Context, id int) (lecture.Lecture, error) {
	rec, err := repo.client.Get(ctx, tableLecture, id, lectureFields, lecture.ErrNotFound)
	if err != nil {
		return lecture.Lecture{}, err
	}
	return repo.decodeOne(rec)
}

func (repo *lectureRepository) Update(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	if lec.ID == 0 {
		return lecture.Lecture{}, lecture.ErrNotFound
	}
	rec, err := repo.client.Update(ctx, tableLecture, lectureToRecord(lec), lecture.ErrNotFound)
	if err != nil {
		return lecture.Lecture{}, err
	}
	saved, err := repo.decodeOne(rec)
	if err == nil && saved.CreatedAt.IsZero() {
		saved.CreatedAt = lec.CreatedAt
	}
	return saved, err
}

func (repo *lectureRepository) Delete(ctx context.Context, id int) error {
	return repo.client.Delete(ctx, tableLecture, id, lecture.ErrNotFound)
}
