package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/user-identity-service/internal/model"
)

// CodeRepo persists one-time verification codes in the
// 'verification_codes' table.  Issuance never purges older codes for
// an email; redemption deletes them all at once.
type CodeRepo struct{ DB *sql.DB }

func NewCodeRepo(db *sql.DB) *CodeRepo { return &CodeRepo{DB: db} }

// Store inserts a code row for the email.
func (r *CodeRepo) Store(ctx context.Context, email, code string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO verification_codes (email, code) VALUES (?,?)",
		email, code)
	return err
}

// Find returns the record matching an exact (email, code) pair.  A
// miss is ErrNotFound, never a driver error.
func (r *CodeRepo) Find(ctx context.Context, email, code string) (model.VerificationCode, error) {
	var vc model.VerificationCode
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, code, created_at FROM verification_codes WHERE email=? AND code=? LIMIT 1",
		email, code).Scan(&vc.ID, &vc.Email, &vc.Code, &vc.CreatedAt)
	if err == sql.ErrNoRows {
		return model.VerificationCode{}, ErrNotFound
	}
	if err != nil {
		return model.VerificationCode{}, err
	}
	return vc, nil
}

// DeleteAll removes every outstanding code for the email.
func (r *CodeRepo) DeleteAll(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM verification_codes WHERE email=?", email)
	return err
}
