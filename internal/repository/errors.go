// Package repository implements the identity store gateway over
// MySQL.  Sentinel errors let the session manager distinguish the
// outcomes it cares about: a lookup miss is an explicit ErrNotFound,
// never a driver error, and a duplicate email on insert is
// ErrEmailExists so uniqueness is enforced atomically by the store's
// unique key rather than by a check-then-act sequence in the caller.
// Any other error from these methods is genuine I/O failure and is
// classified as unavailable by the layer above.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert violates the unique key on
// users.email.
var ErrEmailExists = errors.New("email already exists")
