package model

import "time"

// VerificationCode models a row in the `verification_codes` table.  A
// code is an ephemeral proof of email ownership: created when a manual
// registration completes, consumed on successful verification.  More
// than one outstanding code per email is allowed; all of them are
// deleted together when any one is redeemed.
//
// Fields:
//  ID        – primary key identifier.
//  Email     – the address the code was mailed to.
//  Code      – short random alphanumeric secret.
//  CreatedAt – timestamp of issuance.
type VerificationCode struct {
	ID        uint64    // verification_codes.id
	Email     string    // verification_codes.email
	Code      string    // verification_codes.code
	CreatedAt time.Time // verification_codes.created_at
}
