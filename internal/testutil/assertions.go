// Package testutil provides common test utilities and assertions for boundary tests
package testutil

import (
	"encoding/json"
	stdErrors "errors"
	"testing"

	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequireViolation asserts that err is a contract violation of the given kind
// and returns it.
func RequireViolation(t testing.TB, err error, kind errors.ViolationKind, msgAndArgs ...interface{}) *errors.ContractViolationError {
	t.Helper()

	var cv *errors.ContractViolationError
	require.True(t, stdErrors.As(err, &cv), "expected a contract violation, got %v", err)
	assert.Equal(t, kind, cv.Kind, msgAndArgs...)
	return cv
}

// RequireTerminated asserts that err reports a call into a terminated guest.
func RequireTerminated(t testing.TB, err error, msgAndArgs ...interface{}) {
	t.Helper()
	require.ErrorIs(t, err, errors.ErrGuestTerminated, msgAndArgs...)
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t testing.TB, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// AssertPanicsWithViolation asserts that f panics with a contract violation of the given kind.
func AssertPanicsWithViolation(t testing.TB, kind errors.ViolationKind, f func(), msgAndArgs ...interface{}) {
	t.Helper()

	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		RequireViolation(t, err, kind, msgAndArgs...)
	}()
	f()
}
