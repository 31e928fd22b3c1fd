// Package document builds the OpenAPI fragments sent to Apifox: the standard
// error-response baseline, success-first response ordering, component
// extraction and naming, CRUD generation and YAML rendering.
package document

import (
	"regexp"
	"strings"
)

// Param is a query, path or header parameter as supplied by a tool call
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
	Example     any    `json:"example,omitempty"`
}

// Response is one status code of an endpoint
type Response struct {
	Code int `json:"code"`
	// Name is the human-readable description of the status.
	Name    string         `json:"name,omitempty"`
	Schema  map[string]any `json:"schema,omitempty"`
	Example any            `json:"example,omitempty"`
}

// EndpointSpec is the full description of one endpoint write
type EndpointSpec struct {
	Title       string   `json:"title"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`

	QueryParams  []Param `json:"query_params,omitempty"`
	PathParams   []Param `json:"path_params,omitempty"`
	HeaderParams []Param `json:"header_params,omitempty"`

	RequestBodySchema  map[string]any `json:"request_body_schema,omitempty"`
	RequestBodyExample any            `json:"request_body_example,omitempty"`

	ResponseSchema  map[string]any `json:"response_schema,omitempty"`
	ResponseExample any            `json:"response_example,omitempty"`
	Responses       []Response     `json:"responses,omitempty"`

	// ExtractSchemas lifts inline schemas into components.
	ExtractSchemas bool `json:"extract_schemas,omitempty"`
	// ResourceName overrides the name derived from the path.
	ResourceName string `json:"resource_name,omitempty"`
}

// HTTP methods accepted for endpoint writes
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// SchemaTypes are the JSON Schema primitive types accepted for schema writes
var SchemaTypes = []string{"string", "integer", "number", "boolean", "array", "object", "null"}

var pathParamPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// IsMethod reports whether m is an accepted HTTP method, case-insensitively
func IsMethod(m string) bool {
	m = strings.ToUpper(strings.TrimSpace(m))
	for _, allowed := range Methods {
		if m == allowed {
			return true
		}
	}
	return false
}

// IsMutating reports whether the method carries a request body
func IsMutating(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// PathParamNames returns the {name} segments of a path template in order
func PathParamNames(path string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Normalize trims string fields and upper-cases the method
func (s *EndpointSpec) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Path = strings.TrimSpace(s.Path)
	s.Method = strings.ToUpper(strings.TrimSpace(s.Method))
}

// OperationID derives the operation id from a title
func OperationID(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "_"))
}
