package mockdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursehub/core/program"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) program.Repository {
	return &programRepository{db: db}
}

func copyProgram(p program.Program) program.Program {
	p.Tags = copyStrings(p.Tags)
	return p
}

// query must be called with the table lock held.
func (repo *programRepository) query() []program.Program {
	tbl := repo.db.program
	progs := make([]program.Program, 0, len(tbl.table))
	for _, p := range tbl.table {
		progs = append(progs, copyProgram(*p))
	}
	sort.Slice(progs, func(i, j int) bool {
		if !progs[i].CreatedAt.Equal(progs[j].CreatedAt) {
			return progs[i].CreatedAt.After(progs[j].CreatedAt)
		}
		return progs[i].ID > progs[j].ID
	})
	return progs
}

func (repo *programRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...program.Program) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.program
	tbl.RLock()
	defer tbl.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, p := range excluded {
		excl[p.ID] = true
	}
	if repo.slugTaken(slug, excl) {
		return program.ErrSlugExists
	}
	return nil
}

// slugTaken must be called with the table lock held.
func (repo *programRepository) slugTaken(slug string, excluded map[int]bool) bool {
	for _, p := range repo.db.program.table {
		if p.Slug == slug && !excluded[p.ID] {
			return true
		}
	}
	return false
}

func (repo *programRepository) Create(ctx context.Context, prog program.Program) (program.Program, error) {
	if err := repo.db.wait(ctx); err != nil {
		return program.Program{}, err
	}
	tbl := repo.db.program
	tbl.Lock()
	defer tbl.Unlock()

	if repo.slugTaken(prog.Slug, nil) {
		return program.Program{}, program.ErrSlugExists
	}
	return repo.insert(prog), nil
}

// insert must be called with the table write lock held.
func (repo *programRepository) insert(prog program.Program) program.Program {
	tbl := repo.db.program
	tbl.pk++
	prog.ID = tbl.pk
	prog = copyProgram(prog)
	stored := copyProgram(prog)
	tbl.table[prog.ID] = &stored
	return prog
}

func (repo *programRepository) List(ctx context.Context, filter program.QueryFilter) ([]program.Program, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.program
	tbl.RLock()
	defer tbl.RUnlock()

	progs := repo.query()
	if filter.IsEmpty() {
		return progs, nil
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
	if err := repo.db.wait(ctx); err != nil {
		return program.Program{}, err
	}
	tbl := repo.db.program
	tbl.RLock()
	defer tbl.RUnlock()

	if p, ok := tbl.table[id]; ok {
		return copyProgram(*p), nil
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) GetBySlug(ctx context.Context, slug string) (program.Program, error) {
	if err := repo.db.wait(ctx); err != nil {
		return program.Program{}, err
	}
	tbl := repo.db.program
	tbl.RLock()
	defer tbl.RUnlock()

	for _, p := range tbl.table {
		if p.Slug == slug {
			return copyProgram(*p), nil
		}
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) Update(ctx context.Context, prog program.Program) (program.Program, error) {
	if err := repo.db.wait(ctx); err != nil {
		return program.Program{}, err
	}
	tbl := repo.db.program
	tbl.Lock()
	defer tbl.Unlock()

	orig, ok := tbl.table[prog.ID]
	if !ok {
		return program.Program{}, program.ErrNotFound
	}
	if repo.slugTaken(prog.Slug, map[int]bool{prog.ID: true}) {
		return program.Program{}, program.ErrSlugExists
	}
	prog.CreatedAt = orig.CreatedAt
	stored := copyProgram(prog)
	tbl.table[prog.ID] = &stored
	return copyProgram(prog), nil
}

// Delete removes the program and its lectures.
func (repo *programRepository) Delete(ctx context.Context, id int) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.program
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return program.ErrNotFound
	}
	delete(tbl.table, id)

	lecTbl := repo.db.lecture
	lecTbl.Lock()
	defer lecTbl.Unlock()
	for lid, lec := range lecTbl.table {
		if lec.ProgramID == id {
			delete(lecTbl.table, lid)
		}
	}
	return nil
}
