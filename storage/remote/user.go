package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/user"
)

var userFields = []string{
	"Name", "email", "role", "is_admin", "cohort", "password_hash", "created_at", "updated_at", "last_login",
}

type userRecord struct {
	ID           int       `mapstructure:"Id"`
	Name         string    `mapstructure:"Name"`
	Email        string    `mapstructure:"email"`
	Role         string    `mapstructure:"role"`
	IsAdmin      bool      `mapstructure:"is_admin"`
	Cohort       string    `mapstructure:"cohort"`
	PasswordHash string    `mapstructure:"password_hash"`
	CreatedAt    time.Time `mapstructure:"created_at"`
	UpdatedAt    time.Time `mapstructure:"updated_at"`
	LastLogin    time.Time `mapstructure:"last_login"`
}

// toUser resolves the role the same way as any raw account.
func (r userRecord) toUser() user.User {
	raw := &account.Raw{Role: r.Role, IsAdmin: r.IsAdmin}
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         account.ResolveRole(raw),
		IsAdmin:      account.IsAdmin(raw),
		Cohort:       r.Cohort,
		PasswordHash: []byte(r.PasswordHash),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

func userToRecord(u user.User) Record {
	rec := Record{
		"Name":       u.Name,
		"email":      u.Email,
		"role":       string(u.Role),
		"is_admin":   u.IsAdmin,
		"cohort":     u.Cohort,
		"updated_at": timestamp(u.UpdatedAt),
	}
	if len(u.PasswordHash) > 0 {
		rec["password_hash"] = string(u.PasswordHash)
	}
	if !u.LastLogin.IsZero() {
		rec["last_login"] = timestamp(u.LastLogin)
	}
	if u.ID != 0 {
		rec["Id"] = u.ID
	} else {
		rec["created_at"] = timestamp(u.CreatedAt)
	}
	return rec
}

func decodeUsers(recs []Record) ([]user.User, error) {
	users := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		var r userRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		users = append(users, r.toUser())
	}
	return users, nil
}

type userRepository struct {
	client *Client
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(client *Client) user.Repository {
	return &userRepository{client: client}
}

func (repo *userRepository) fetch(ctx context.Context, q Query) ([]user.User, error) {
	recs, err := repo.client.Fetch(ctx, tableUser, q)
	if err != nil {
		return nil, err
	}
	return decodeUsers(recs)
}

func (repo *userRepository) saved(rec Record, orig user.User) (user.User, error) {
	users, err := decodeUsers([]Record{rec})
	if err != nil {
		return user.User{}, err
	}
	usr := users[0]
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = orig.CreatedAt
	}
	if len(usr.PasswordHash) == 0 {
		usr.PasswordHash = orig.PasswordHash
	}
	return usr, nil
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...user.User) error {
	users, err := repo.fetch(ctx, lookup(userFields, "email", email))
	if err != nil {
		return errors.Wrap(err, "checking email")
	}
	excl := make(map[int]bool, len(excluded))
	for _, u := range excluded {
		excl[u.ID] = true
	}
	for _, u := range users {
		if !excl[u.ID] {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = 0
	rec, err := repo.client.Create(ctx, tableUser, userToRecord(usr))
	if err != nil {
		return user.User{}, err
	}
	return repo.saved(rec, usr)
}

func (repo *userRepository) List(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	users, err := repo.fetch(ctx, Query{
		Fields:  userFields,
		OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}},
	})
	if err != nil {
		return nil, err
	}
	filtered := make([]user.User, 0, len(users))
	for _, u := range users {
		if filter.Match(u) {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func (repo *userRepository) Get(ctx context.Context, id int) (user.User, error) {
	rec, err := repo.client.Get(ctx, tableUser, id, userFields, user.ErrNotFound)
	if err != nil {
		return user.User{}, err
	}
	return repo.saved(rec, user.User{})
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	users, err := repo.fetch(ctx, lookup(userFields, "email", email))
	if err != nil {
		return user.User{}, err
	}
	if len(users) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return users[0], nil
}

// Update keeps the stored password when usr.PasswordHash is empty.
func (repo *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == 0 {
		return user.User{}, user.ErrNotFound
	}
	rec, err := repo.client.Update(ctx, tableUser, userToRecord(usr), user.ErrNotFound)
	if err != nil {
		return user.User{}, err
	}
	return repo.saved(rec, usr)
}

func (repo *userRepository) Delete(ctx context.Context, id int) error {
	return repo.client.Delete(ctx, tableUser, id, user.ErrNotFound)
}
