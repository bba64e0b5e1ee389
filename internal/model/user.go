package model

import "time"

// LoginType identifies how an account was provisioned.  It is a closed
// set: MANUAL accounts are created through registration and carry a
// password hash; GOOGLE and FACEBOOK accounts are provisioned on first
// OAuth login and never require one.
type LoginType string

const (
	LoginManual   LoginType = "MANUAL"
	LoginGoogle   LoginType = "GOOGLE"
	LoginFacebook LoginType = "FACEBOOK"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  The json tags are omitted here because these structs
// are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags so the
// password hash can never leak into a payload.
//
// Fields:
//  ID           – primary key identifier of the user (zero before persistence).
//  Name         – display name supplied at registration.
//  Email        – unique, normalized email address.
//  PasswordHash – bcrypt hashed password; empty for OAuth-provisioned users.
//  IsVerified   – whether email ownership has been proven.
//  LoginType    – MANUAL, GOOGLE or FACEBOOK.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash (empty when NULL)
	IsVerified   bool      // users.is_verified
	LoginType    LoginType // users.login_type
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
