package mockdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursehub/core/lecture"
)

type lectureRepository struct {
	db *DB
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(db *DB) lecture.Repository {
	return &lectureRepository{db: db}
}

func copyLecture(l lecture.Lecture) lecture.Lecture {
	l.Tags = copyStrings(l.Tags)
	if l.CohortNumber != nil {
		n := *l.CohortNumber
		l.CohortNumber = &n
	}
	return l
}

func (repo *lectureRepository) Create(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	if err := repo.db.wait(ctx); err != nil {
		return lecture.Lecture{}, err
	}
	tbl := repo.db.lecture
	tbl.Lock()
	defer tbl.Unlock()
	return repo.insert(lec), nil
}

// insert must be called with the table write lock held.
func (repo *lectureRepository) insert(lec lecture.Lecture) lecture.Lecture {
	tbl := repo.db.lecture
	tbl.pk++
	lec.ID = tbl.pk
	stored := copyLecture(lec)
	tbl.table[lec.ID] = &stored
	return copyLecture(lec)
}

func (repo *lectureRepository) List(ctx context.Context) ([]lecture.Lecture, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.lecture
	tbl.RLock()
	defer tbl.RUnlock()

	lecs := make([]lecture.Lecture, 0, len(tbl.table))
	for _, l := range tbl.table {
		lecs = append(lecs, copyLecture(*l))
	}
	sort.Slice(lecs, func(i, j int) bool {
		if !lecs[i].CreatedAt.Equal(lecs[j].CreatedAt) {
			return lecs[i].CreatedAt.After(lecs[j].CreatedAt)
		}
		return lecs[i].ID > lecs[j].ID
	})
	return lecs, nil
}

func (repo *lectureRepository) ListByProgram(ctx context.Context, programID int) ([]lecture.Lecture, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.lecture
	tbl.RLock()
	defer tbl.RUnlock()

	lecs := make([]lecture.Lecture, 0)
	for _, l := range tbl.table {
		if l.ProgramID == programID {
			lecs = append(lecs, copyLecture(*l))
		}
	}
	sort.Slice(lecs, func(i, j int) bool {
		if lecs[i].Order != lecs[j].Order {
			return lecs[i].Order < lecs[j].Order
		}
		return lecs[i].ID < lecs[j].ID
	})
	return lecs, nil
}

func (repo *lectureRepository) Get(ctx context.Context, id int) (lecture.Lecture, error) {
	if err := repo.db.wait(ctx); err != nil {
		return lecture.Lecture{}, err
	}
	tbl := repo.db.lecture
	tbl.RLock()
	defer tbl.RUnlock()

	if l, ok := tbl.table[id]; ok {
		return copyLecture(*l), nil
	}
	return lecture.Lecture{}, lecture.ErrNotFound
}

func (repo *lectureRepository) Update(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	if err := repo.db.wait(ctx); err != nil {
		return lecture.Lecture{}, err
	}
	tbl := repo.db.lecture
	tbl.Lock()
	defer tbl.Unlock()

	orig, ok := tbl.table[lec.ID]
	if !ok {
		return lecture.Lecture{}, lecture.ErrNotFound
	}
	lec.CreatedAt = orig.CreatedAt
	stored := copyLecture(lec)
	tbl.table[lec.ID] = &stored
	return copyLecture(lec), nil
}

func (repo *lectureRepository) Delete(ctx context.Context, id int) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.lecture
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return lecture.ErrNotFound
	}
	delete(tbl.table, id)
	return nil
}
