package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

// ErrorResponse is the structured form of an error reported to a tool caller
type ErrorResponse struct {
	Status     string                 `json:"status"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Hints      []string               `json:"hints,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StackTrace string                 `json:"stack_trace,omitempty"`
}

// Error response codes
const (
	StatusCodeValidationError = "VALIDATION_ERROR"
	StatusCodeConfigError     = "CONFIG_ERROR"
	StatusCodeNetworkError    = "NETWORK_ERROR"
	StatusCodeTimeoutError    = "TIMEOUT_ERROR"
	StatusCodeRemoteError     = "REMOTE_ERROR"
	StatusCodeConflictError   = "CONFLICT"
	StatusCodeNotFoundError   = "NOT_FOUND"
	StatusCodeDatabaseError   = "DATABASE_ERROR"
	StatusCodeInternalError   = "INTERNAL_ERROR"
	StatusCodeUnknownError    = "UNKNOWN_ERROR"
)

// configHint is appended to every configuration error
const configHint = "Set APIFOX_TOKEN and APIFOX_PROJECT_ID in the environment, a .env file or .apifoxmcpconfig"

// remoteHints returns remediation steps for a platform status code
func remoteHints(status int) []string {
	switch status {
	case http.StatusUnauthorized:
		return []string{
			"The access token is invalid or expired",
			"Create a new token under Account settings > API access token",
		}
	case http.StatusForbidden:
		return []string{
			"The token has no access to this project",
			"Check that APIFOX_PROJECT_ID is the numeric id shown in Project settings",
			"Check that the token's account is a project member with edit permission",
		}
	case http.StatusNotFound:
		return []string{"The project does not exist; check APIFOX_PROJECT_ID"}
	case http.StatusTooManyRequests:
		return []string{"The platform is rate limiting requests; retry later or lower apifox.requests_per_second"}
	}
	return nil
}

// errorToResponse converts an error to a standardized ErrorResponse
func errorToResponse(err error) ErrorResponse {
	var code string
	var details map[string]interface{}
	var stackTrace string
	var hints []string
	message := err.Error()

	var appErr *errortypes.AppError
	if errors.As(err, &appErr) {
		details = appErr.Fields
		stackTrace = appErr.StackInfo

		switch appErr.Type {
		case errortypes.ErrorTypeValidation:
			code = StatusCodeValidationError
		case errortypes.ErrorTypeConfig:
			code = StatusCodeConfigError
			hints = []string{configHint}
		case errortypes.ErrorTypeNetwork:
			code = StatusCodeNetworkError
			hints = []string{"Check the network connection and apifox.base_url"}
		case errortypes.ErrorTypeTimeout:
			code = StatusCodeTimeoutError
			hints = []string{"The platform did not answer in time; retry or raise apifox.timeout_seconds"}
		case errortypes.ErrorTypeRemote:
			code = StatusCodeRemoteError
			hints = remoteHints(appErr.StatusCode)
		case errortypes.ErrorTypeConflict:
			code = StatusCodeConflictError
		case errortypes.ErrorTypeNotFound:
			code = StatusCodeNotFoundError
		case errortypes.ErrorTypeDatabase:
			code = StatusCodeDatabaseError
		case errortypes.ErrorTypeInternal:
			code = StatusCodeInternalError
		default:
			code = StatusCodeUnknownError
		}
	} else {
		code = StatusCodeUnknownError
	}

	return ErrorResponse{
		Status:     "error",
		Code:       code,
		Message:    message,
		Hints:      hints,
		Details:    details,
		StackTrace: stackTrace,
	}
}

// errorMessage renders an error as the text placed in a tool response
func errorMessage(err error) string {
	resp := errorToResponse(err)
	msg := fmt.Sprintf("[%s] %s", resp.Code, resp.Message)
	if len(resp.Hints) == 0 {
		return msg
	}
	return msg + "\n  - " + strings.Join(resp.Hints, "\n  - ")
}
