package document

import (
	"net/http"
	"sort"
)

// Status codes every write operation documents
var (
	RequiredClientErrors = []int{400, 401, 403, 404}
	RequiredServerErrors = []int{500, 502, 503}
	MutatingClientErrors = []int{409, 422}
)

// ErrorResponseComponent is the shared component name of the error body
const ErrorResponseComponent = "ErrorResponse"

var statusNames = map[int]string{
	200: "Success",
	201: "Created",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	409: "Conflict",
	422: "Unprocessable Entity",
	429: "Too Many Requests",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

// StatusName returns the display name for a status code
func StatusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Response"
}

// ErrorSchema returns a fresh copy of the standard error body schema
func ErrorSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code":    map[string]any{"type": "integer", "description": "Error code"},
			"message": map[string]any{"type": "string", "description": "Error message"},
			"details": map[string]any{"type": "object", "description": "Additional error details"},
		},
		"required": []any{"code", "message"},
	}
}

var errorExamples = map[int]map[string]any{
	400: {"code": 400, "message": "Invalid request parameters", "details": map[string]any{"field": "name", "reason": "must not be empty"}},
	401: {"code": 401, "message": "Unauthorized, please sign in first"},
	403: {"code": 403, "message": "You do not have permission to access this resource"},
	404: {"code": 404, "message": "The requested resource does not exist"},
	409: {"code": 409, "message": "The resource already exists or is in a conflicting state"},
	422: {"code": 422, "message": "The request is well-formed but semantically invalid", "details": map[string]any{"field": "email", "reason": "invalid format"}},
	500: {"code": 500, "message": "Internal server error, please retry later"},
	502: {"code": 502, "message": "Bad gateway, upstream service unavailable"},
	503: {"code": 503, "message": "Service temporarily unavailable, please retry later"},
}

var errorNames = map[int]string{
	400: "Invalid request parameters",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Resource not found",
	409: "Resource conflict",
	422: "Unprocessable entity",
	500: "Internal server error",
	502: "Bad gateway",
	503: "Service unavailable",
}

// StandardErrorResponse returns the baseline response for an error code
func StandardErrorResponse(code int) (Response, bool) {
	example, ok := errorExamples[code]
	if !ok {
		return Response{}, false
	}
	copied := make(map[string]any, len(example))
	for k, v := range example {
		copied[k] = v
	}
	return Response{
		Code:    code,
		Name:    errorNames[code],
		Schema:  ErrorSchema(),
		Example: copied,
	}, true
}

// RequiredErrorCodes lists the error codes a method must document
func RequiredErrorCodes(method string) []int {
	codes := append(append([]int{}, RequiredClientErrors...), RequiredServerErrors...)
	if IsMutating(method) {
		codes = append(codes, MutatingClientErrors...)
	}
	return codes
}

// FillErrorResponses appends the standard error response for every required
// code the caller did not already supply. Caller-supplied entries are kept as is.
func FillErrorResponses(responses []Response, method string) []Response {
	out := append([]Response{}, responses...)
	existing := make(map[int]bool, len(responses))
	for _, r := range responses {
		existing[r.Code] = true
	}
	for _, code := range RequiredErrorCodes(method) {
		if existing[code] {
			continue
		}
		if r, ok := StandardErrorResponse(code); ok {
			out = append(out, r)
			existing[code] = true
		}
	}
	return out
}

// WithSuccessFirst drops any caller-supplied response for the success code and
// puts success at the head of the list.
func WithSuccessFirst(success Response, responses []Response) []Response {
	out := make([]Response, 0, len(responses)+1)
	out = append(out, success)
	for _, r := range responses {
		if r.Code != success.Code {
			out = append(out, r)
		}
	}
	return out
}

// FinalResponses is the complete ordered response list for an endpoint write
func FinalResponses(spec EndpointSpec) []Response {
	filled := FillErrorResponses(spec.Responses, spec.Method)
	success := Response{
		Code:    200,
		Name:    StatusName(200),
		Schema:  spec.ResponseSchema,
		Example: spec.ResponseExample,
	}
	return WithSuccessFirst(success, filled)
}

// ResponseCodes returns the codes of a response list in ascending order
func ResponseCodes(responses []Response) []int {
	codes := make([]int, 0, len(responses))
	for _, r := range responses {
		codes = append(codes, r.Code)
	}
	sort.Ints(codes)
	return codes
}
