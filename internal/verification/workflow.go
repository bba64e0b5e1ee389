// Package verification implements the email verification workflow:
// per email the state machine is Unverified -> CodeIssued -> Verified.
// Issuing generates and stores a short one-time code and hands it to
// the mail dispatcher; redeeming an exact match flips the user's
// verified flag and consumes every outstanding code for that email.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"

	"github.com/iliyamo/user-identity-service/internal/apperr"
	"github.com/iliyamo/user-identity-service/internal/model"
	"github.com/iliyamo/user-identity-service/internal/repository"
)

// CodeLen is the length of an issued verification code.
const CodeLen = 4

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// UserStore is the slice of the identity store the workflow needs.
type UserStore interface {
	MarkVerified(ctx context.Context, email string) error
}

// CodeStore persists and looks up one-time codes.
type CodeStore interface {
	Store(ctx context.Context, email, code string) error
	Find(ctx context.Context, email, code string) (model.VerificationCode, error)
	DeleteAll(ctx context.Context, email string) error
}

// CodeSender dispatches an issued code to the address it verifies.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// Workflow wires the stores and the mail dispatcher together.
type Workflow struct {
	Users  UserStore
	Codes  CodeStore
	Sender CodeSender
}

func NewWorkflow(users UserStore, codes CodeStore, sender CodeSender) *Workflow {
	return &Workflow{Users: users, Codes: codes, Sender: sender}
}

// IssueCode generates a fresh code for the email, stores it and
// dispatches it by mail.  Older codes for the email are left in place;
// they are only purged on successful redemption.  A dispatch failure
// is logged but not fatal: the code is stored, so the user can request
// a resend by attempting to log in again.
func (w *Workflow) IssueCode(ctx context.Context, email string) (string, error) {
	code, err := randomCode(CodeLen)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err)
	}
	if err := w.Codes.Store(ctx, email, code); err != nil {
		return "", apperr.Wrap(apperr.Unavailable, err)
	}
	if err := w.Sender.SendVerificationCode(ctx, email, code); err != nil {
		log.Printf("verification: send code to %s failed: %v", email, err)
	}
	return code, nil
}

// Redeem verifies an (email, code) pair.  On a match the user is
// marked verified and all outstanding codes for the email are deleted,
// so any previously issued code stops working.  On a miss the state is
// unchanged and InvalidCode is returned.
func (w *Workflow) Redeem(ctx context.Context, email, code string) error {
	if _, err := w.Codes.Find(ctx, email, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.InvalidCode)
		}
		return apperr.Wrap(apperr.Unavailable, err)
	}
	if err := w.Users.MarkVerified(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Msg(apperr.InvalidCode, "User does not exist.")
		}
		return apperr.Wrap(apperr.Unavailable, err)
	}
	if err := w.Codes.DeleteAll(ctx, email); err != nil {
		return apperr.Wrap(apperr.Unavailable, err)
	}
	return nil
}

// randomCode draws n characters uniformly from the alphanumeric
// alphabet using crypto/rand.
func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
