package mockdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursehub/core/waitlist"
)

type waitlistRepository struct {
	db *DB
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(db *DB) waitlist.Repository {
	return &waitlistRepository{db: db}
}

// exists must be called with the table lock held.
func (repo *waitlistRepository) exists(email, programSlug string) bool {
	for _, e := range repo.db.waitlist.table {
		if e.Email == email && e.ProgramSlug == programSlug {
			return true
		}
	}
	return false
}

func (repo *waitlistRepository) Create(ctx context.Context, entry waitlist.Entry) (waitlist.Entry, error) {
	if err := repo.db.wait(ctx); err != nil {
		return waitlist.Entry{}, err
	}
	tbl := repo.db.waitlist
	tbl.Lock()
	defer tbl.Unlock()

	if repo.exists(entry.Email, entry.ProgramSlug) {
		return waitlist.Entry{}, waitlist.ErrAlreadyOnWaitlist
	}
	return repo.insert(entry), nil
}

// insert must be called with the table write lock held.
func (repo *waitlistRepository) insert(entry waitlist.Entry) waitlist.Entry {
	tbl := repo.db.waitlist
	tbl.pk++
	entry.ID = tbl.pk
	stored := entry
	tbl.table[entry.ID] = &stored
	return entry
}

func (repo *waitlistRepository) Exists(ctx context.Context, email, programSlug string) (bool, error) {
	if err := repo.db.wait(ctx); err != nil {
		return false, err
	}
	tbl := repo.db.waitlist
	tbl.RLock()
	defer tbl.RUnlock()
	return repo.exists(email, programSlug), nil
}

func (repo *waitlistRepository) List(ctx context.Context, filter waitlist.QueryFilter) ([]waitlist.Entry, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.waitlist
	tbl.RLock()
	defer tbl.RUnlock()

	entries := make([]waitlist.Entry, 0, len(tbl.table))
	for _, e := range tbl.table {
		if filter.ProgramSlug == "" || e.ProgramSlug == filter.ProgramSlug {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

func (repo *waitlistRepository) Get(ctx context.Context, id int) (waitlist.Entry, error) {
	if err := repo.db.wait(ctx); err != nil {
		return waitlist.Entry{}, err
	}
	tbl := repo.db.waitlist
	tbl.RLock()
	defer tbl.RUnlock()

	if e, ok := tbl.table[id]; ok {
		return *e, nil
	}
	return waitlist.Entry{}, waitlist.ErrNotFound
}

func (repo *waitlistRepository) Delete(ctx context.Context, id int) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.waitlist
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return waitlist.ErrNotFound
	}
	delete(tbl.table, id)
	return nil
}
