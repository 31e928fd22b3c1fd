// Package validation checks endpoint and schema writes before they are
// assembled. Every rule runs and all violations are reported together.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/localrivet/apifoxmcp/internal/document"
)

// MaxQuotedPlaceholders caps the offenders quoted per example
const MaxQuotedPlaceholders = 3

// Violation is one broken rule
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Message
}

// Violations is the collected result of a check
type Violations []Violation

// Error renders the violations as a bulleted report
func (vs Violations) Error() string {
	lines := make([]string, 0, len(vs)+1)
	lines = append(lines, "The definition is incomplete, fix the following problems:")
	for _, v := range vs {
		lines = append(lines, "  - "+v.Message)
	}
	return strings.Join(lines, "\n")
}

// Messages returns the plain messages in order
func (vs Violations) Messages() []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Message
	}
	return out
}

// Err returns nil for an empty set, otherwise the set itself
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return vs
}

func (vs *Violations) add(field, format string, args ...any) {
	*vs = append(*vs, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

var verbPrefixes = []string{"get", "post", "put", "delete", "patch"}

// CheckTitle applies the naming rules for endpoint titles
func CheckTitle(title string) Violations {
	var vs Violations
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		vs.add("title", "title must not be empty")
		return vs
	}

	lower := strings.ToLower(trimmed)
	looksLikeRoute := strings.HasPrefix(trimmed, "/") || isIdentifier(trimmed)
	for _, verb := range verbPrefixes {
		if strings.HasPrefix(lower, verb+" ") || strings.HasPrefix(lower, verb+"/") {
			looksLikeRoute = true
		}
	}
	if looksLikeRoute {
		vs.add("title", "title %q is not a business name, describe what the endpoint does, e.g. \"Create order\"", title)
	}
	if strings.ContainsAny(trimmed, "-—") {
		vs.add("title", "title %q must not carry a role prefix, write \"List courses\" rather than \"Student-List courses\"", title)
	}
	return vs
}

// isIdentifier matches titles such as get_user or user_list/all
func isIdentifier(title string) bool {
	if !strings.Contains(title, "_") {
		return false
	}
	rest := strings.NewReplacer("_", "", "/", "").Replace(title)
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func checkParams(vs *Violations, field string, params []document.Param) {
	for _, p := range params {
		if strings.TrimSpace(p.Description) == "" {
			vs.add(field, "%s parameter %q is missing a description", field, p.Name)
		}
	}
}

func checkPlaceholders(vs *Violations, field string, example any) {
	found := document.Placeholders(example)
	if len(found) == 0 {
		return
	}
	if len(found) > MaxQuotedPlaceholders {
		found = found[:MaxQuotedPlaceholders]
	}
	vs.add(field, "%s contains placeholder values: %s, use realistic sample data", field, strings.Join(found, ", "))
}

func checkDescriptions(vs *Violations, field string, schema map[string]any) {
	if len(schema) == 0 {
		return
	}
	if missing := document.MissingDescriptions(schema); len(missing) > 0 {
		vs.add(field, "%s fields are missing a description: %s", field, strings.Join(missing, ", "))
	}
}

// ValidateEndpoint runs every endpoint rule against a create or update call
func ValidateEndpoint(spec document.EndpointSpec) Violations {
	spec.Normalize()
	var vs Violations

	vs = append(vs, CheckTitle(spec.Title)...)

	if strings.TrimSpace(spec.Description) == "" {
		vs.add("description", "description must not be empty")
	}

	if spec.Path == "" {
		vs.add("path", "path must not be empty")
	} else if !strings.HasPrefix(spec.Path, "/") {
		vs.add("path", "path %q must start with /", spec.Path)
	}

	methodOK := document.IsMethod(spec.Method)
	if !methodOK {
		vs.add("method", "invalid HTTP method %q, supported: %s", spec.Method, strings.Join(document.Methods, ", "))
	}

	if methodOK && document.IsMutating(spec.Method) {
		if len(spec.RequestBodySchema) == 0 {
			vs.add("request_body_schema", "%s requests must provide request_body_schema", spec.Method)
		}
		if isEmptyExample(spec.RequestBodyExample) {
			vs.add("request_body_example", "%s requests must provide request_body_example", spec.Method)
		}
	}

	checkDescriptions(&vs, "response_schema", spec.ResponseSchema)
	checkDescriptions(&vs, "request_body_schema", spec.RequestBodySchema)
	for _, r := range spec.Responses {
		checkDescriptions(&vs, fmt.Sprintf("responses[%d].schema", r.Code), r.Schema)
	}

	checkParams(&vs, "query_params", spec.QueryParams)
	checkParams(&vs, "path_params", spec.PathParams)
	checkParams(&vs, "header_params", spec.HeaderParams)
	checkPathParams(&vs, spec.Path, spec.PathParams)

	checkPlaceholders(&vs, "response_example", spec.ResponseExample)
	checkPlaceholders(&vs, "request_body_example", spec.RequestBodyExample)

	vs = append(vs, CheckExample("request_body_example", spec.RequestBodySchema, spec.RequestBodyExample)...)
	vs = append(vs, CheckExample("response_example", spec.ResponseSchema, spec.ResponseExample)...)
	return vs
}

func isEmptyExample(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return t == ""
	}
	return false
}

func checkPathParams(vs *Violations, path string, params []document.Param) {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	inPath := map[string]bool{}
	for _, name := range document.PathParamNames(path) {
		inPath[name] = true
		if !declared[name] {
			vs.add("path_params", "path segment {%s} is not declared in path_params", name)
		}
	}
	for _, p := range params {
		if !inPath[p.Name] {
			vs.add("path_params", "path parameter %q does not appear in path %s", p.Name, path)
		}
	}
}

// ValidateSchema runs the rules for create_schema and update_schema
func ValidateSchema(spec document.SchemaSpec) Violations {
	var vs Violations
	if strings.TrimSpace(spec.Name) == "" {
		vs.add("name", "schema name must not be empty")
	}
	typ := spec.Type
	if typ == "" {
		typ = "object"
	}
	if !document.IsSchemaType(typ) {
		vs.add("schema_type", "invalid schema type %q, supported: %s", spec.Type, strings.Join(document.SchemaTypes, ", "))
		return vs
	}

	schema := spec.JSONSchema()
	checkDescriptions(&vs, "properties", schema)
	for _, req := range spec.Required {
		if _, ok := spec.Properties[req]; !ok {
			vs.add("required", "required field %q is not a defined property", req)
		}
	}
	checkPlaceholders(&vs, "example", spec.Example)
	if spec.Example == nil {
		vs = append(vs, CheckSchema("schema", schema)...)
	} else {
		vs = append(vs, CheckExample("example", schema, spec.Example)...)
	}
	return vs
}
