package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, name, username, email, phone_number, is_active, password_hash, role, avatar_url`

const createUser = `-- name: CreateUser
INSERT INTO users (id, name, username, email, phone_number, is_active, password_hash, role, avatar_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + userColumns

// Create user
// If id is not set the new one is generated
func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createUser,
		u.ID, u.Name, u.Username, u.Email, u.PhoneNumber, u.IsActive, u.HashedPassword, u.Role, u.AvatarURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	if err != nil {
		return user, userWriteError(err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const listUsers = `-- name: ListUsers
SELECT ` + userColumns + ` FROM users
WHERE $1::text = '' OR role = $1::text
ORDER BY created_at, id
`

func (r *UserRepo) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers, string(role))
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET name = $2, username = $3, email = $4, phone_number = $5, is_active = $6, password_hash = $7, role = $8, avatar_url = $9
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser,
		u.ID, u.Name, u.Username, u.Email, u.PhoneNumber, u.IsActive, u.HashedPassword, u.Role, u.AvatarURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, userWriteError(err)
	}
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE id = $1
`

func (r *UserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteUser, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrUserOwnsProperties
		}
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

// Translate unique constraint violations to the field that is already taken
func userWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return apperrors.ErrUsernameTaken
		case "users_email_key":
			return apperrors.ErrEmailTaken
		case "users_phone_number_key":
			return apperrors.ErrPhoneTaken
		}
	}

	return fmt.Errorf("db error: %w", err)
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.Name, &u.Username, &u.Email, &u.PhoneNumber,
		&u.IsActive, &u.HashedPassword, &u.Role, &u.AvatarURL,
	)
	return u, err
}
