package document

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// CRUD operation names
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// DefaultCRUDOperations is the operation set generated when none is requested
var DefaultCRUDOperations = []string{OpList, OpGet, OpCreate, OpUpdate, OpDelete}

// CRUDSpec describes a resource for which a CRUD endpoint set is generated
type CRUDSpec struct {
	ResourceName string
	// Label is the human-readable resource name used in titles and tags.
	Label             string
	BasePath          string
	Model             map[string]any
	IDField           string
	IDType            string
	Operations        []string
	Tags              []string
	DescriptionPrefix string
}

// CRUDEndpoint is one generated operation
type CRUDEndpoint struct {
	Operation string
	Method    string
	Path      string
	Title     string
}

func (e CRUDEndpoint) String() string {
	return e.Method + " " + e.Path
}

func (c *CRUDSpec) normalize() {
	c.ResourceName = strings.TrimSpace(c.ResourceName)
	c.Label = strings.TrimSpace(c.Label)
	if c.Label == "" {
		c.Label = c.ResourceName
	}
	c.BasePath = "/" + strings.Trim(strings.TrimSpace(c.BasePath), "/")
	if c.IDField == "" {
		c.IDField = "id"
	}
	if c.IDType == "" {
		c.IDType = "integer"
	}
	if len(c.Operations) == 0 {
		c.Operations = DefaultCRUDOperations
	}
	if len(c.Tags) == 0 {
		c.Tags = []string{c.Label + " management"}
	}
}

// Check returns the problems that prevent generation, all of them at once
func (c CRUDSpec) Check() []string {
	c.normalize()
	var problems []string
	if c.ResourceName == "" {
		problems = append(problems, "resource_name is required")
	}
	if c.BasePath == "/" {
		problems = append(problems, "base_path is required")
	}
	if len(Properties(c.Model)) == 0 {
		problems = append(problems, "model_schema must define properties")
	}
	for _, missing := range MissingDescriptions(c.Model) {
		problems = append(problems, fmt.Sprintf("model field %q is missing a description", missing))
	}
	for _, op := range c.Operations {
		switch op {
		case OpList, OpGet, OpCreate, OpUpdate, OpDelete:
		default:
			problems = append(problems, fmt.Sprintf("unknown operation %q", op))
		}
	}
	return problems
}

// ExampleValue generates a realistic example for one model field
func ExampleValue(name string, prop map[string]any, idField string) any {
	if name == idField {
		return 1
	}
	switch schemaType(prop) {
	case "integer":
		return 1
	case "number":
		return 1.0
	case "boolean":
		return true
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	}
	if ex, ok := prop["example"]; ok && ex != nil && ex != "" && ex != "string" {
		return ex
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "email"):
		return "user@example.com"
	case strings.Contains(lower, "phone"):
		return "13800138000"
	case strings.Contains(lower, "name"):
		return "Sample name"
	case strings.Contains(lower, "time"), strings.Contains(lower, "date"):
		return "2024-01-01T12:00:00Z"
	case strings.Contains(lower, "url"):
		return "https://example.com"
	}
	desc, _ := prop["description"].(string)
	if desc == "" {
		desc = name
	}
	return "Sample " + desc
}

// ModelExample generates an example object covering every model property
func ModelExample(model map[string]any, idField string) map[string]any {
	props := Properties(model)
	out := make(map[string]any, len(props))
	for name, raw := range props {
		prop, _ := raw.(map[string]any)
		out[name] = ExampleValue(name, prop, idField)
	}
	return out
}

func withoutField(m map[string]any, field string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != field {
			out[k] = v
		}
	}
	return out
}

func createRequestSchema(model map[string]any, idField string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": withoutField(Properties(model), idField),
	}
	var required []any
	switch req := model["required"].(type) {
	case []any:
		for _, r := range req {
			if r != idField {
				required = append(required, r)
			}
		}
	case []string:
		for _, r := range req {
			if r != idField {
				required = append(required, r)
			}
		}
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func listResponseSchema(name string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items":     map[string]any{"type": "array", "description": "Items on this page", "items": RefTo(name)},
			"total":     map[string]any{"type": "integer", "description": "Total number of items"},
			"page":      map[string]any{"type": "integer", "description": "Current page number"},
			"page_size": map[string]any{"type": "integer", "description": "Items per page"},
		},
		"required": []any{"items", "total"},
	}
}

func errorResponses(method string) []Response {
	var out []Response
	for _, code := range RequiredErrorCodes(method) {
		if r, ok := StandardErrorResponse(code); ok {
			r.Schema = RefTo(ErrorResponseComponent)
			out = append(out, r)
		}
	}
	return out
}

// GenerateCRUD builds the CRUD document for a resource and reports the
// generated endpoints in operation order.
func GenerateCRUD(spec CRUDSpec) (*openapi3.T, []CRUDEndpoint, error) {
	if problems := spec.Check(); len(problems) > 0 {
		return nil, nil, fmt.Errorf("invalid CRUD request: %s", strings.Join(problems, "; "))
	}
	spec.normalize()

	resource := PascalCase(spec.ResourceName)
	lowerName := strings.ToLower(spec.ResourceName)
	createName := "Create" + resource + "Request"
	listName := resource + "ListResponse"

	itemExample := ModelExample(spec.Model, spec.IDField)
	createExample := withoutField(itemExample, spec.IDField)
	itemPath := spec.BasePath + "/{" + spec.IDField + "}"

	describe := func(action string) string {
		if spec.DescriptionPrefix == "" {
			return action
		}
		return spec.DescriptionPrefix + "\n\n" + action
	}
	idParam := Param{
		Name:        spec.IDField,
		Type:        spec.IDType,
		Required:    true,
		Description: spec.Label + " ID",
		Example:     1,
	}

	doc := NewFragment(spec.Label + " CRUD API")
	var endpoints []CRUDEndpoint

	for _, opName := range spec.Operations {
		var (
			endpoint EndpointSpec
			success  Response
			opID     string
		)
		switch opName {
		case OpList:
			endpoint = EndpointSpec{
				Title:       "List " + spec.Label,
				Path:        spec.BasePath,
				Method:      "GET",
				Description: describe("Returns a paged list of " + spec.Label + " records."),
				QueryParams: []Param{
					{Name: "page", Type: "integer", Description: "Page number, starting at 1", Example: 1},
					{Name: "page_size", Type: "integer", Description: "Items per page", Example: 20},
				},
			}
			success = Response{Code: 200, Name: StatusName(200), Schema: RefTo(listName), Example: map[string]any{
				"items":     []any{itemExample},
				"total":     100,
				"page":      1,
				"page_size": 20,
			}}
			opID = "list_" + lowerName + "s"
		case OpGet:
			endpoint = EndpointSpec{
				Title:       "Get " + spec.Label,
				Path:        itemPath,
				Method:      "GET",
				Description: describe("Returns a single " + spec.Label + " by " + spec.IDField + "."),
				PathParams:  []Param{idParam},
			}
			success = Response{Code: 200, Name: StatusName(200), Schema: RefTo(resource), Example: itemExample}
			opID = "get_" + lowerName
		case OpCreate:
			endpoint = EndpointSpec{
				Title:              "Create " + spec.Label,
				Path:               spec.BasePath,
				Method:             "POST",
				Description:        describe("Creates a new " + spec.Label + "."),
				RequestBodySchema:  RefTo(createName),
				RequestBodyExample: createExample,
			}
			success = Response{Code: 201, Name: StatusName(201), Schema: RefTo(resource), Example: itemExample}
			opID = "create_" + lowerName
		case OpUpdate:
			endpoint = EndpointSpec{
				Title:              "Update " + spec.Label,
				Path:               itemPath,
				Method:             "PUT",
				Description:        describe("Updates an existing " + spec.Label + "."),
				PathParams:         []Param{idParam},
				RequestBodySchema:  RefTo(createName),
				RequestBodyExample: createExample,
			}
			success = Response{Code: 200, Name: StatusName(200), Schema: RefTo(resource), Example: itemExample}
			opID = "update_" + lowerName
		case OpDelete:
			endpoint = EndpointSpec{
				Title:       "Delete " + spec.Label,
				Path:        itemPath,
				Method:      "DELETE",
				Description: describe("Deletes a " + spec.Label + "."),
				PathParams:  []Param{idParam},
			}
			success = Response{Code: 204, Name: StatusName(204)}
			opID = "delete_" + lowerName
		}
		endpoint.Tags = spec.Tags

		responses := WithSuccessFirst(success, errorResponses(endpoint.Method))
		op, err := BuildOperation(endpoint, responses)
		if err != nil {
			return nil, nil, fmt.Errorf("%s operation: %w", opName, err)
		}
		op.OperationID = opID
		AddOperation(doc, endpoint.Path, endpoint.Method, op)
		endpoints = append(endpoints, CRUDEndpoint{
			Operation: opName,
			Method:    endpoint.Method,
			Path:      endpoint.Path,
			Title:     endpoint.Title,
		})
	}

	components := map[string]map[string]any{
		resource:               spec.Model,
		createName:             createRequestSchema(spec.Model, spec.IDField),
		listName:               listResponseSchema(resource),
		ErrorResponseComponent: ErrorSchema(),
	}
	if err := AddComponents(doc, components); err != nil {
		return nil, nil, err
	}
	return doc, endpoints, nil
}
