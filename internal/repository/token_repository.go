package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/user-identity-service/internal/model"
)

// TokenRepo persists refresh-token records in the 'refresh_tokens'
// table.  The signed token string is the lookup and delete key: logout
// and rotation invalidate a session by removing its row.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token record.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, email, token) VALUES (?,?,?,?)",
		t.ID, t.UserID, t.Email, t.Token)
	return err
}

// DeleteByToken removes the record holding this token value.  When no
// row matches it returns ErrNotFound so the caller can tell a replayed
// or already-terminated session apart from a live one.
func (r *TokenRepo) DeleteByToken(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token=?", token)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
