package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{
	InvalidInput, Conflict, InvalidCredential, InvalidCode,
	Forbidden, Unauthorized, Unavailable, Internal,
}

func TestHTTPStatusIsTotal(t *testing.T) {
	want := map[Kind]int{
		InvalidInput:      http.StatusBadRequest,
		InvalidCode:       http.StatusBadRequest,
		InvalidCredential: http.StatusUnauthorized,
		Unauthorized:      http.StatusUnauthorized,
		Forbidden:         http.StatusForbidden,
		Conflict:          http.StatusConflict,
		Unavailable:       http.StatusServiceUnavailable,
		Internal:          http.StatusInternalServerError,
	}
	for _, k := range allKinds {
		require.Equal(t, want[k], k.HTTPStatus(), k.String())
		require.NotEmpty(t, messages[k], "kind %s has no default message", k)
	}
	// unknown kinds collapse to 500
	require.Equal(t, http.StatusInternalServerError, Kind(0).HTTPStatus())
}

func TestKindMatchingThroughWrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("login: %w", Wrap(Unavailable, cause))

	require.Equal(t, Unavailable, KindOf(err))
	require.True(t, errors.Is(err, New(Unavailable)))
	require.False(t, errors.Is(err, New(Internal)))
	// the underlying cause stays reachable for logs
	require.True(t, errors.Is(err, cause))
	// but the client-facing message is the taxonomy default, not the cause
	require.Equal(t, "Service temporarily unavailable. Please try again.", Message(err))
}

func TestUnclassifiedErrorsCollapseToInternal(t *testing.T) {
	err := errors.New("index out of range")
	require.Equal(t, Internal, KindOf(err))
	require.Equal(t, "Internal Server Error. Please try again.", Message(err))
}

func TestMsgOverridesDefaultText(t *testing.T) {
	err := Msg(InvalidCredential, "User does not exist.")
	require.Equal(t, InvalidCredential, KindOf(err))
	require.Equal(t, "User does not exist.", Message(err))
}
