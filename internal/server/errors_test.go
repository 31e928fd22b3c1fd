package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

func TestErrorToResponse(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantHints int
	}{
		{"validation error", errortypes.ValidationError(errors.New("bad"), "invalid input"), StatusCodeValidationError, 0},
		{"config error", errortypes.ConfigError(errors.New("unset"), "missing APIFOX_TOKEN"), StatusCodeConfigError, 1},
		{"network error", errortypes.NetworkError(errors.New("refused"), "request failed"), StatusCodeNetworkError, 1},
		{"timeout error", errortypes.TimeoutError(errors.New("deadline"), "request timed out"), StatusCodeTimeoutError, 1},
		{"unauthorized", errortypes.RemoteError(401, "token expired"), StatusCodeRemoteError, 2},
		{"forbidden", errortypes.RemoteError(403, "forbidden"), StatusCodeRemoteError, 3},
		{"missing project", errortypes.RemoteError(404, "not found"), StatusCodeRemoteError, 1},
		{"rate limited", errortypes.RemoteError(429, "slow down"), StatusCodeRemoteError, 1},
		{"server failure", errortypes.RemoteError(500, "boom"), StatusCodeRemoteError, 0},
		{"conflict", errortypes.ConflictError(errors.New("GET /users"), "endpoint already exists"), StatusCodeConflictError, 0},
		{"not found", errortypes.NotFoundError(errors.New("GET /x"), "no endpoint found"), StatusCodeNotFoundError, 0},
		{"database error", errortypes.DatabaseError(errors.New("locked"), "journal write failed"), StatusCodeDatabaseError, 0},
		{"internal error", errortypes.InternalError(errors.New("oops"), "failed"), StatusCodeInternalError, 0},
		{"plain error", errors.New("plain"), StatusCodeUnknownError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := errorToResponse(tt.err)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.err.Error(), resp.Message)
			assert.Len(t, resp.Hints, tt.wantHints)
		})
	}
}

func TestErrorToResponseKeepsFields(t *testing.T) {
	err := errortypes.InternalError(errors.New("oops"), "failed to assemble").WithField("path", "/users")
	resp := errorToResponse(err)
	assert.Equal(t, "/users", resp.Details["path"])
	assert.NotEmpty(t, resp.StackTrace)
}

func TestErrorToResponseWrapped(t *testing.T) {
	inner := errortypes.ConfigError(errors.New("unset"), "missing APIFOX_PROJECT_ID")
	resp := errorToResponse(errors.Join(errors.New("startup"), inner))
	assert.Equal(t, StatusCodeConfigError, resp.Code)
	assert.Equal(t, []string{configHint}, resp.Hints)
}

func TestErrorMessage(t *testing.T) {
	msg := errorMessage(errortypes.NotFoundError(errors.New("GET /x"), "no endpoint found"))
	assert.Equal(t, "[NOT_FOUND] no endpoint found: GET /x", msg)

	msg = errorMessage(errortypes.RemoteError(404, "project missing"))
	assert.Equal(t, "[REMOTE_ERROR] HTTP 404: project missing\n  - The project does not exist; check APIFOX_PROJECT_ID", msg)

	msg = errorMessage(errortypes.RemoteError(401, "expired"))
	assert.Contains(t, msg, "\n  - The access token is invalid or expired\n  - Create a new token")
}
