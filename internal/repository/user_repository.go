package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/user-identity-service/internal/model"
)

// UserRepo persists user records in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  password_hash is NULL for
// OAuth-provisioned users.  The unique key on email makes duplicate
// registration fail here atomically.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	var hash sql.NullString
	if u.PasswordHash != "" {
		hash = sql.NullString{String: u.PasswordHash, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, is_verified, login_type) VALUES (?,?,?,?,?)",
		u.Name, u.Email, hash, u.IsVerified, string(u.LoginType))
	if err != nil {
		// MySQL 1062: duplicate entry for a unique key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,is_verified,login_type,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,is_verified,login_type,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

// MarkVerified flips the verified flag for the user with this email.
func (r *UserRepo) MarkVerified(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=1 WHERE email=?", email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		hash      sql.NullString
		loginType string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &hash, &u.IsVerified, &loginType, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash.String
	u.LoginType = model.LoginType(loginType)
	return u, nil
}
