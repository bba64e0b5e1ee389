// Package apperr defines the closed error taxonomy shared by the
// session manager, its collaborators and the HTTP handlers.  Every
// failure that crosses a package boundary is one of the kinds below,
// so the transport mapping stays total and exhaustive instead of
// dispatching on free-form message strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.  The zero value is not a valid kind.
type Kind int

const (
	// InvalidInput – malformed or missing field; the client must
	// correct the request before retrying.
	InvalidInput Kind = iota + 1
	// Conflict – duplicate email on registration.
	Conflict
	// InvalidCredential – wrong email/password pair on manual login.
	InvalidCredential
	// InvalidCode – verification code does not match any issued code.
	InvalidCode
	// Forbidden – unverified account attempting manual login.
	Forbidden
	// Unauthorized – bad or expired token, or unknown session.
	Unauthorized
	// Unavailable – store or mail transport failure; safe to retry.
	Unavailable
	// Internal – unexpected failure; logged server-side, never detailed
	// to the caller.
	Internal
)

// messages holds the default human-readable text per kind.  Texts are
// terse and non-leaking; they are what a client sees when no more
// specific message was attached.
var messages = map[Kind]string{
	InvalidInput:      "Invalid input.",
	Conflict:          "Email already registered.",
	InvalidCredential: "Invalid credentials.",
	InvalidCode:       "Invalid verification code.",
	Forbidden:         "Account is not verified.",
	Unauthorized:      "Unauthorized.",
	Unavailable:       "Service temporarily unavailable. Please try again.",
	Internal:          "Internal Server Error. Please try again.",
}

// HTTPStatus maps a kind to the status code the transport layer
// answers with.  Unknown kinds collapse to 500.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidInput, InvalidCode:
		return http.StatusBadRequest
	case InvalidCredential, Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case InvalidCredential:
		return "invalid_credential"
	case InvalidCode:
		return "invalid_code"
	case Forbidden:
		return "forbidden"
	case Unauthorized:
		return "unauthorized"
	case Unavailable:
		return "unavailable"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified failure.  Msg is the client-facing text; Err
// optionally carries the underlying cause for server-side logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two apperr values by kind, so callers can
// compare against New(kind) sentinels without caring about messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New returns an error of the given kind with its default message.
func New(k Kind) *Error {
	return &Error{Kind: k, Msg: messages[k]}
}

// Msg returns an error of the given kind with a specific client-facing
// message.
func Msg(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// Wrap classifies an underlying error under the given kind, keeping
// the default message for the client and the cause for the logs.
func Wrap(k Kind, err error) *Error {
	return &Error{Kind: k, Msg: messages[k], Err: err}
}

// KindOf extracts the kind from err, or Internal when err is not a
// classified error.  It is the single point handlers use to translate
// failures, so a raw collaborator error can never select a 4xx status.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message extracts the client-facing message from err, falling back to
// the Internal default for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return messages[Internal]
}
