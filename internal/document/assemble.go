package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	// FragmentVersion is the OpenAPI version of every document sent to import.
	FragmentVersion = "3.0.0"
	fragmentInfoVer = "1.0.0"
	jsonContentType = "application/json"
	schemaRefPrefix = "#/components/schemas/"
)

// SchemaRef converts a JSON Schema given as a generic map into a kin-openapi
// schema reference. A map holding "$ref" becomes a pure reference.
func SchemaRef(m map[string]any) (*openapi3.SchemaRef, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	ref := &openapi3.SchemaRef{}
	if err := json.Unmarshal(raw, ref); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return ref, nil
}

// RefTo builds a $ref map pointing at a component schema
func RefTo(name string) map[string]any {
	return map[string]any{"$ref": schemaRefPrefix + name}
}

// ComponentName returns the component a local $ref points to, or ""
func ComponentName(ref string) string {
	if !strings.HasPrefix(ref, schemaRefPrefix) {
		return ""
	}
	return strings.TrimPrefix(ref, schemaRefPrefix)
}

// IsRef reports whether a schema map is a bare $ref
func IsRef(m map[string]any) bool {
	_, ok := m["$ref"].(string)
	return ok
}

func buildParams(spec EndpointSpec) (openapi3.Parameters, error) {
	var params openapi3.Parameters
	add := func(list []Param, in string) error {
		for _, p := range list {
			typ := p.Type
			if typ == "" {
				typ = "string"
			}
			schema, err := SchemaRef(map[string]any{"type": typ})
			if err != nil {
				return err
			}
			params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
				Name:        p.Name,
				In:          in,
				Required:    p.Required || in == openapi3.ParameterInPath,
				Description: p.Description,
				Schema:      schema,
				Example:     p.Example,
			}})
		}
		return nil
	}
	if err := add(spec.QueryParams, openapi3.ParameterInQuery); err != nil {
		return nil, err
	}
	if err := add(spec.PathParams, openapi3.ParameterInPath); err != nil {
		return nil, err
	}
	if err := add(spec.HeaderParams, openapi3.ParameterInHeader); err != nil {
		return nil, err
	}
	return params, nil
}

func mediaType(schema map[string]any, example any) (*openapi3.MediaType, error) {
	ref, err := SchemaRef(schema)
	if err != nil {
		return nil, err
	}
	return &openapi3.MediaType{Schema: ref, Example: example}, nil
}

// BuildResponses converts an ordered response list into kin-openapi responses
func BuildResponses(responses []Response) (*openapi3.Responses, error) {
	out := openapi3.NewResponsesWithCapacity(len(responses))
	for _, r := range responses {
		desc := r.Name
		if desc == "" {
			desc = StatusName(r.Code)
		}
		resp := &openapi3.Response{Description: &desc}
		if len(r.Schema) > 0 || r.Example != nil {
			mt, err := mediaType(r.Schema, r.Example)
			if err != nil {
				return nil, fmt.Errorf("response %d: %w", r.Code, err)
			}
			resp.Content = openapi3.Content{jsonContentType: mt}
		}
		out.Set(strconv.Itoa(r.Code), &openapi3.ResponseRef{Value: resp})
	}
	return out, nil
}

// BuildOperation converts an endpoint and its final response list into an operation
func BuildOperation(spec EndpointSpec, responses []Response) (*openapi3.Operation, error) {
	params, err := buildParams(spec)
	if err != nil {
		return nil, err
	}

	op := &openapi3.Operation{
		Summary:     spec.Title,
		Description: spec.Description,
		OperationID: OperationID(spec.Title),
		Tags:        spec.Tags,
		Parameters:  params,
	}

	if len(spec.RequestBodySchema) > 0 || spec.RequestBodyExample != nil {
		mt, err := mediaType(spec.RequestBodySchema, spec.RequestBodyExample)
		if err != nil {
			return nil, fmt.Errorf("request body: %w", err)
		}
		op.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.Content{jsonContentType: mt},
		}}
	}

	op.Responses, err = BuildResponses(responses)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// NewFragment returns an empty document ready to receive paths and components
func NewFragment(title string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: FragmentVersion,
		Info:    &openapi3.Info{Title: title, Version: fragmentInfoVer},
		Paths:   openapi3.NewPaths(),
	}
}

// AddComponents stores generic schema maps under components/schemas
func AddComponents(doc *openapi3.T, components map[string]map[string]any) error {
	if len(components) == 0 {
		return nil
	}
	if doc.Components == nil {
		doc.Components = &openapi3.Components{}
	}
	if doc.Components.Schemas == nil {
		doc.Components.Schemas = openapi3.Schemas{}
	}
	for name, schema := range components {
		ref, err := SchemaRef(schema)
		if err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
		doc.Components.Schemas[name] = ref
	}
	return nil
}

// AddOperation places op at path/method, creating the path item when needed
func AddOperation(doc *openapi3.T, path, method string, op *openapi3.Operation) {
	item := doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(path, item)
	}
	item.SetOperation(strings.ToUpper(method), op)
}

// Assemble builds the single-endpoint document imported by create and update.
// The response list is the caller's list with the error baseline filled in and
// the success response first. With ExtractSchemas set, request and success
// schemas move into components and error bodies reference ErrorResponse.
func Assemble(spec EndpointSpec) (*openapi3.T, []Response, error) {
	spec.Normalize()
	responses := FinalResponses(spec)

	var components map[string]map[string]any
	if spec.ExtractSchemas {
		spec, responses, components = Extract(spec, responses)
	}

	op, err := BuildOperation(spec, responses)
	if err != nil {
		return nil, nil, err
	}

	doc := NewFragment(spec.Title)
	AddOperation(doc, spec.Path, spec.Method, op)
	if err := AddComponents(doc, components); err != nil {
		return nil, nil, err
	}
	return doc, responses, nil
}

// Validate checks a fragment with the OpenAPI validator. References to schemas
// that live only in the remote project are stubbed so the rest of the
// document is still checked.
func Validate(ctx context.Context, doc *openapi3.T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	if missing := MissingComponents(generic); len(missing) > 0 {
		components, _ := generic["components"].(map[string]any)
		if components == nil {
			components = map[string]any{}
			generic["components"] = components
		}
		schemas, _ := components["schemas"].(map[string]any)
		if schemas == nil {
			schemas = map[string]any{}
			components["schemas"] = schemas
		}
		for _, name := range missing {
			schemas[name] = map[string]any{"type": "object"}
		}
		if raw, err = json.Marshal(generic); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}

	loader := openapi3.NewLoader()
	loaded, err := loader.LoadFromData(raw)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	return loaded.Validate(ctx, openapi3.DisableExamplesValidation())
}

// CollectRefs records every component name referenced by "$ref" anywhere in v
func CollectRefs(v any, into map[string]bool) {
	switch t := v.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			if name := ComponentName(ref); name != "" {
				into[name] = true
			}
		}
		for _, child := range t {
			CollectRefs(child, into)
		}
	case []any:
		for _, child := range t {
			CollectRefs(child, into)
		}
	}
}

// MissingComponents lists referenced component schemas absent from a generic document
func MissingComponents(generic map[string]any) []string {
	refs := map[string]bool{}
	CollectRefs(generic, refs)

	components, _ := generic["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)

	var missing []string
	for name := range refs {
		if _, ok := schemas[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
