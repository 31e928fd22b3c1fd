package errortypes

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetType(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		err  *AppError
		want ErrorType
	}{
		{ValidationError(cause, "m"), ErrorTypeValidation},
		{ConfigError(cause, "m"), ErrorTypeConfig},
		{NetworkError(cause, "m"), ErrorTypeNetwork},
		{TimeoutError(cause, "m"), ErrorTypeTimeout},
		{ConflictError(cause, "m"), ErrorTypeConflict},
		{NotFoundError(cause, "m"), ErrorTypeNotFound},
		{DatabaseError(cause, "m"), ErrorTypeDatabase},
		{InternalError(cause, "m"), ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.True(t, Is(tt.err, tt.want))
			assert.ErrorIs(t, tt.err, cause)
			assert.NotEmpty(t, tt.err.StackInfo)
		})
	}
}

func TestErrorString(t *testing.T) {
	err := NotFoundError(errors.New("GET /users"), "no endpoint found")
	assert.Equal(t, "no endpoint found: GET /users", err.Error())

	bare := &AppError{Err: errors.New("plain")}
	assert.Equal(t, "plain", bare.Error())
}

func TestRemoteError(t *testing.T) {
	err := RemoteError(403, "no permission")
	assert.Equal(t, ErrorTypeRemote, err.Type)
	assert.Equal(t, "HTTP 403: no permission", err.Error())

	wrapped := fmt.Errorf("export failed: %w", err)
	assert.Equal(t, 403, StatusCode(wrapped))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidationError(ValidationError(errors.New("x"), "m")))
	assert.True(t, IsConfigError(fmt.Errorf("wrap: %w", ConfigError(errors.New("x"), "m"))))
	assert.True(t, IsNetworkError(NetworkError(errors.New("x"), "m")))
	assert.True(t, IsNetworkError(TimeoutError(errors.New("x"), "m")))
	assert.False(t, IsNetworkError(RemoteError(500, "x")))
	assert.False(t, Is(errors.New("plain"), ErrorTypeInternal))
}

func TestWithFields(t *testing.T) {
	err := InternalError(errors.New("x"), "m").
		WithField("path", "/users").
		WithFields(map[string]interface{}{"method": "GET"})
	assert.Equal(t, "/users", err.Fields["path"])
	assert.Equal(t, "GET", err.Fields["method"])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogError(logger, RemoteError(429, "slow down").WithField("endpoint", "export-openapi"))
	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "type=remote")
	assert.Contains(t, out, "status_code=429")
	assert.Contains(t, out, "endpoint=export-openapi")

	buf.Reset()
	LogError(logger, errors.New("plain failure"))
	assert.Contains(t, buf.String(), "plain failure")
}
