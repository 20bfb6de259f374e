package sqlxdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/user"
)

type userRow struct {
	ID           int        `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Role         string     `db:"role"`
	IsAdmin      bool       `db:"is_admin"`
	Cohort       string     `db:"cohort"`
	PasswordHash null.Bytes `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLogin    null.Time  `db:"last_login"`
}

func toUserRow(u user.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		IsAdmin:      u.IsAdmin,
		Cohort:       u.Cohort,
		PasswordHash: null.NewBytes(u.PasswordHash, len(u.PasswordHash) > 0),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(u.LastLogin.UTC(), !u.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	u := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         account.ParseRole(r.Role),
		IsAdmin:      r.IsAdmin,
		Cohort:       r.Cohort,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		u.LastLogin = r.LastLogin.Time.UTC()
	}
	return u
}

const userColumns = `id, name, email, role, is_admin, cohort, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...user.User) error {
	ids := make([]int, 0, len(excluded))
	for _, u := range excluded {
		ids = append(ids, u.ID)
	}
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND NOT (id = ANY($2)))`, email, intArray(ids))
	if err != nil {
		return errors.Wrap(err, "checking user email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	q, args, err := repo.db.BindNamed(`
		INSERT INTO "user" (name, email, role, is_admin, cohort, password_hash, created_at, updated_at, last_login)
		VALUES (:name, :email, :role, :is_admin, :cohort, :password_hash, :created_at, :updated_at, :last_login)
		RETURNING `+userColumns, toUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "binding user")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) List(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM "user"
		WHERE ($1::text = '' OR role = $1)
			AND ($2::boolean IS NULL OR is_admin = $2)
			AND ($3::text = '' OR name ILIKE $4 OR email ILIKE $4)
		ORDER BY created_at DESC, id DESC`,
		string(filter.Role), null.BoolFromPtr(filter.IsAdmin), filter.Search, like(filter.Search))
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) get(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM "user" WHERE `+where+` = $1`, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) Get(ctx context.Context, id int) (user.User, error) {
	return repo.get(ctx, "id", id)
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, "email", email)
}

// Update keeps the stored password hash if `usr` has none.
func (repo *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	q, args, err := repo.db.BindNamed(`
		UPDATE "user" SET name = :name, email = :email, role = :role, is_admin = :is_admin, cohort = :cohort,
			password_hash = COALESCE(:password_hash, password_hash), updated_at = :updated_at, last_login = :last_login
		WHERE id = :id
		RETURNING `+userColumns, toUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "binding user")
	}
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return checkAffected(res, user.ErrNotFound)
}
