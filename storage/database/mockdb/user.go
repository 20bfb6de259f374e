package mockdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursehub/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func copyUser(u user.User) user.User {
	hash := make([]byte, len(u.PasswordHash))
	copy(hash, u.PasswordHash)
	u.PasswordHash = hash
	return u
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...user.User) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.user
	tbl.RLock()
	defer tbl.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, u := range excluded {
		excl[u.ID] = true
	}
	if repo.emailTaken(email, excl) {
		return user.ErrEmailExists
	}
	return nil
}

// emailTaken must be called with the table lock held.
func (repo *userRepository) emailTaken(email string, excluded map[int]bool) bool {
	for _, u := range repo.db.user.table {
		if u.Email == email && !excluded[u.ID] {
			return true
		}
	}
	return false
}

func (repo *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	tbl := repo.db.user
	tbl.Lock()
	defer tbl.Unlock()

	if repo.emailTaken(usr.Email, nil) {
		return user.User{}, user.ErrEmailExists
	}
	return repo.insert(usr), nil
}

// insert must be called with the table write lock held.
func (repo *userRepository) insert(usr user.User) user.User {
	tbl := repo.db.user
	tbl.pk++
	usr.ID = tbl.pk
	stored := copyUser(usr)
	tbl.table[usr.ID] = &stored
	return copyUser(usr)
}

func (repo *userRepository) List(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	tbl := repo.db.user
	tbl.RLock()
	defer tbl.RUnlock()

	users := make([]user.User, 0, len(tbl.table))
	for _, u := range tbl.table {
		if filter.Match(*u) {
			users = append(users, copyUser(*u))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return users, nil
}

func (repo *userRepository) Get(ctx context.Context, id int) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	tbl := repo.db.user
	tbl.RLock()
	defer tbl.RUnlock()

	if u, ok := tbl.table[id]; ok {
		return copyUser(*u), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	tbl := repo.db.user
	tbl.RLock()
	defer tbl.RUnlock()

	for _, u := range tbl.table {
		if u.Email == email {
			return copyUser(*u), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// Update saves every field of `usr`. An empty PasswordHash keeps the stored one.
func (repo *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	tbl := repo.db.user
	tbl.Lock()
	defer tbl.Unlock()

	orig, ok := tbl.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, map[int]bool{usr.ID: true}) {
		return user.User{}, user.ErrEmailExists
	}
	if len(usr.PasswordHash) == 0 {
		usr.PasswordHash = orig.PasswordHash
	}
	usr.CreatedAt = orig.CreatedAt
	stored := copyUser(usr)
	tbl.table[usr.ID] = &stored
	return copyUser(usr), nil
}

func (repo *userRepository) Delete(ctx context.Context, id int) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	tbl := repo.db.user
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return user.ErrNotFound
	}
	delete(tbl.table, id)
	return nil
}
