package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core/user"
)

const userCols = "id, name, username, email, is_active, password_hash, created_at, updated_at, last_login"

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func userErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		if pqErr.Constraint == "user_username_key" {
			return user.ErrUsernameExists
		}
		return user.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	q := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2) AND id::text <> ALL($3)`
	if err := repo.db.SelectContext(ctx, &taken, q, username, email, pq.Array(excluded)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, usr := range taken {
		if usr.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	q := `INSERT INTO "user" (` + userCols + `)
		VALUES (:id, :name, :username, :email, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, usr); err != nil {
		return user.User{}, userErr(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Username != "":
		w.add("username = ?", filter.Username)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case filter.UsernameOrEmail != "":
		w.add("(username = ? OR email = ?)", filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, `SELECT `+userCols+` FROM "user"`+w.String()+" LIMIT 1", w.args...); err != nil {
		return user.User{}, userErr(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET name = $2, username = $3, email = $4, is_active = $5,
			password_hash = COALESCE($6, password_hash), updated_at = $7, last_login = $8
		WHERE id = $1 RETURNING ` + userCols
	var hash interface{} // NULL keeps the current password
	if usr.PasswordHash != nil {
		hash = usr.PasswordHash
	}
	var updated user.User
	err := repo.db.GetContext(ctx, &updated, q,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, hash, usr.UpdatedAt, usr.LastLogin)
	if err != nil {
		return user.User{}, userErr(err, "updating user")
	}
	return updated, nil
}
