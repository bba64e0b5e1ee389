package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  The
// token column holds the signed refresh JWT itself and is the lookup
// and delete key: logout and rotation invalidate a session by deleting
// the row, not by revoking the signature.
//
// Fields:
//  ID        – uuid primary key.
//  UserID    – owner of the token.
//  Email     – owner's email at issuance time.
//  Token     – the signed refresh token string (unique).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        string    // refresh_tokens.id (uuid)
	UserID    uint64    // refresh_tokens.user_id
	Email     string    // refresh_tokens.email
	Token     string    // refresh_tokens.token
	CreatedAt time.Time // refresh_tokens.created_at
}
