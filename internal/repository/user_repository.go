package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/activity-tracker/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,hashed_password,full_name,is_active,created_at,updated_at"

// Create inserts u and fills in its ID and timestamps.  The email is
// normalised to lower case.  Duplicate emails or usernames yield
// ErrEmailExists or ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)

	// Pre-check so the caller learns which field collided; the unique keys
	// still guard against a concurrent insert.
	var email, username string
	err := r.DB.QueryRowContext(ctx,
		"SELECT email,username FROM users WHERE email=? OR username=? LIMIT 1",
		u.Email, u.Username).Scan(&email, &username)
	switch {
	case err == nil:
		if email == u.Email {
			return ErrEmailExists
		}
		return ErrUsernameExists
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, hashed_password, full_name, is_active) VALUES (?,?,?,?,?)",
		u.Email, u.Username, u.HashedPassword, u.FullName, true)
	if err != nil {
		if msg, dup := duplicateKey(err); dup {
			if strings.Contains(msg, "email") {
				return ErrEmailExists
			}
			return ErrUsernameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var (
		u        model.User
		fullName sql.NullString
		updated  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.HashedPassword, &fullName, &u.IsActive, &u.CreatedAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	u.UpdatedAt = nullTimePtr(updated)
	return &u, nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
