package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fmlibermann/website/core/user"
)

const userTable = "admin_user"

var userColumns = []string{"id", "username", "password_hash", "is_active", "created_at", "updated_at", "last_login"}

type userRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func boilUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		PasswordHash: usr.PasswordHash,
		IsActive:     usr.IsActive,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func unboilUser(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

type userRepository struct {
	executor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{executor{db}}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := boilUser(usr)
	q := psql.Insert(userTable).
		Columns(userColumns[1:]...).
		Values(row.Username, row.PasswordHash, row.IsActive, row.CreatedAt, row.UpdatedAt, row.LastLogin)
	id, err := repo.insert(ctx, q)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	row.ID = id
	return unboilUser(row), nil
}

func (repo *userRepository) getBy(ctx context.Context, where sq.Eq) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, &row, psql.Select(userColumns...).From(userTable).Where(where)); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return unboilUser(row), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getBy(ctx, sq.Eq{"id": id})
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, sq.Eq{"username": username})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := boilUser(usr)
	q := psql.Update(userTable).
		Set("is_active", row.IsActive).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": row.ID})
	if row.PasswordHash != nil {
		q = q.Set("password_hash", row.PasswordHash)
	}
	if row.LastLogin.Valid {
		q = q.Set("last_login", row.LastLogin)
	}

	res, err := repo.exec(ctx, q)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, row.ID)
}

func (repo *userRepository) CountUsers(ctx context.Context) (int, error) {
	return repo.count(ctx, userTable)
}
