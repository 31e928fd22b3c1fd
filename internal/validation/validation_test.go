package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/localrivet/apifoxmcp/internal/document"
)

func validOrder() document.EndpointSpec {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"orderId": map[string]any{"type": "integer", "description": "Order id"},
			"status":  map[string]any{"type": "string", "description": "Order status"},
			"lines": map[string]any{
				"type":        "array",
				"description": "Order lines",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"sku": map[string]any{"type": "string", "description": "Stock keeping unit"},
					},
				},
			},
		},
		"required": []any{"status"},
	}
	return document.EndpointSpec{
		Title:              "Update order",
		Path:               "/orders/{orderId}",
		Method:             "put",
		Description:        "Replaces the order lines.",
		PathParams:         []document.Param{{Name: "orderId", Type: "integer", Description: "Order id"}},
		QueryParams:        []document.Param{{Name: "notify", Description: "Send a notification"}},
		RequestBodySchema:  schema,
		RequestBodyExample: map[string]any{"status": "paid", "lines": []any{map[string]any{"sku": "SKU-1"}}},
		ResponseSchema:     schema,
		ResponseExample:    map[string]any{"orderId": 10001, "status": "paid"},
	}
}

func TestValidateEndpointAccepts(t *testing.T) {
	assert.Empty(t, ValidateEndpoint(validOrder()))
	assert.NoError(t, ValidateEndpoint(validOrder()).Err())
}

func TestValidateEndpointCollectsAll(t *testing.T) {
	spec := validOrder()
	spec.Title = "put /orders"
	spec.Description = "   "
	spec.RequestBodyExample = nil
	spec.QueryParams[0].Description = ""
	spec.ResponseExample = map[string]any{"orderId": 1, "status": "string"}
	delete(spec.RequestBodySchema["properties"].(map[string]any)["status"].(map[string]any), "description")

	vs := ValidateEndpoint(spec)
	fields := map[string]int{}
	for _, v := range vs {
		fields[v.Field]++
	}

	assert.Equal(t, 1, fields["title"])
	assert.Equal(t, 1, fields["description"])
	assert.Equal(t, 1, fields["request_body_example"])
	assert.Equal(t, 1, fields["query_params"])
	assert.Equal(t, 1, fields["request_body_schema"])
	// the schema map is shared, so response_schema loses its description too
	assert.Equal(t, 1, fields["response_schema"])
	assert.Equal(t, 1, fields["response_example"])

	report := vs.Error()
	assert.True(t, strings.HasPrefix(report, "The definition is incomplete"))
	assert.Contains(t, report, `status="string"`)
	assert.Contains(t, report, "fields are missing a description: status")
}

func TestCheckTitle(t *testing.T) {
	tests := []struct {
		title string
		bad   int
	}{
		{"Create order", 0},
		{"List courses", 0},
		{"", 1},
		{"GET /users", 1},
		{"delete/users", 1},
		{"/users", 1},
		{"get_user", 1},
		{"user_list/all", 1},
		{"order_v2", 0},
		{"Student-List courses", 1},
		{"Student — List courses", 1},
		{"get-user", 1},
		{"post /users-admin", 2},
		{"Getaway pass", 0},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Len(t, CheckTitle(tt.title), tt.bad)
		})
	}
}

func TestMutatingMethodsNeedBody(t *testing.T) {
	for _, method := range []string{"POST", "PUT", "PATCH"} {
		spec := validOrder()
		spec.Method = method
		spec.RequestBodySchema = nil
		spec.RequestBodyExample = map[string]any{}

		vs := ValidateEndpoint(spec)
		assert.Len(t, vs, 2, method)
	}

	spec := validOrder()
	spec.Method = "DELETE"
	spec.RequestBodySchema = nil
	spec.RequestBodyExample = nil
	assert.Empty(t, ValidateEndpoint(spec))
}

func TestInvalidMethod(t *testing.T) {
	spec := validOrder()
	spec.Method = "FETCH"
	vs := ValidateEndpoint(spec)
	require.Len(t, vs, 1)
	assert.Equal(t, "method", vs[0].Field)
	assert.Contains(t, vs[0].Message, "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS")
}

func TestPathParamsMustMatch(t *testing.T) {
	spec := validOrder()
	spec.Path = "/shops/{shopId}/orders/{orderId}"
	vs := ValidateEndpoint(spec)
	require.Len(t, vs, 1)
	assert.Equal(t, "path segment {shopId} is not declared in path_params", vs[0].Message)

	spec = validOrder()
	spec.Path = "/orders"
	vs = ValidateEndpoint(spec)
	require.Len(t, vs, 1)
	assert.Equal(t, `path parameter "orderId" does not appear in path /orders`, vs[0].Message)
}

func TestPlaceholderQuoteLimit(t *testing.T) {
	spec := validOrder()
	spec.ResponseExample = map[string]any{"a": "string", "b": "", "c": "string", "d": "string", "orderId": 1}
	spec.ResponseSchema = nil

	vs := ValidateEndpoint(spec)
	require.Len(t, vs, 1)
	assert.Equal(t, `response_example contains placeholder values: a="string", b="string", c="string", use realistic sample data`, vs[0].Message)
}

func TestExampleMustMatchSchema(t *testing.T) {
	spec := validOrder()
	spec.ResponseExample = map[string]any{"orderId": "ten", "status": "paid"}

	vs := ValidateEndpoint(spec)
	require.Len(t, vs, 1)
	assert.Equal(t, "response_example", vs[0].Field)
	assert.Contains(t, vs[0].Message, "does not match its schema")
}

func TestRefSchemasSkipConformance(t *testing.T) {
	spec := validOrder()
	spec.ResponseSchema = document.RefTo("Order")
	spec.ResponseExample = map[string]any{"anything": true}
	assert.Empty(t, ValidateEndpoint(spec))
}

func TestValidateSchema(t *testing.T) {
	good := document.SchemaSpec{
		Name: "Address",
		Properties: map[string]any{
			"city": map[string]any{"type": "string", "description": "City"},
			"zip":  map[string]any{"type": "string", "description": "Postal code"},
		},
		Required: []string{"city"},
		Example:  map[string]any{"city": "Berlin", "zip": "10115"},
	}
	assert.Empty(t, ValidateSchema(good))

	bad := good
	bad.Name = " "
	bad.Required = []string{"city", "country"}
	bad.Properties = map[string]any{
		"city": map[string]any{"type": "string"},
		"zip":  map[string]any{"type": "string", "description": "Postal code"},
	}
	bad.Example = map[string]any{"zip": "10115"}
	vs := ValidateSchema(bad)
	assert.Equal(t, []string{"name", "properties", "required", "example"}, fieldsOf(vs))

	assert.Len(t, ValidateSchema(document.SchemaSpec{Name: "X", Type: "date"}), 1)
	assert.Empty(t, ValidateSchema(document.SchemaSpec{Name: "Nothing", Type: "null"}))
}

func TestCheckSchemaRejectsBrokenSchema(t *testing.T) {
	vs := CheckSchema("schema", map[string]any{"type": "strin"})
	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "not a valid JSON Schema")

	assert.Empty(t, CheckSchema("schema", map[string]any{"$ref": "#/components/schemas/X"}))
}

func fieldsOf(vs Violations) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Field)
	}
	return out
}

func TestBusinessTitlesPass(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringMatching(`(Create|List|Update|Remove|Fetch) [a-z]{2,10}( [a-z]{2,10}){0,2}`).Draw(t, "title")
		if vs := CheckTitle(title); len(vs) != 0 {
			t.Fatalf("title %q rejected: %v", title, vs.Messages())
		}
	})
}

func TestRouteTitlesFail(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		verb := rapid.SampledFrom([]string{"get", "GET", "Post", "put", "DELETE", "patch"}).Draw(t, "verb")
		sep := rapid.SampledFrom([]string{" ", "/"}).Draw(t, "sep")
		rest := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "rest")
		if vs := CheckTitle(verb + sep + rest); len(vs) == 0 {
			t.Fatalf("title %q accepted", verb+sep+rest)
		}
	})
}

func TestNullableFieldsAcceptNull(t *testing.T) {
	spec := validOrder()
	props := spec.RequestBodySchema["properties"].(map[string]any)
	props["nickname"] = map[string]any{"type": "string", "nullable": true, "description": "Display name"}
	spec.RequestBodyExample = map[string]any{"status": "paid", "nickname": nil}
	assert.Empty(t, ValidateEndpoint(spec))

	props["nickname"] = map[string]any{"type": "string", "description": "Display name"}
	vs := ValidateEndpoint(spec)
	require.Len(t, vs, 1)
	assert.Equal(t, "request_body_example", vs[0].Field)
}

func TestBooleanExclusiveBounds(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quantity": map[string]any{
				"type":             "integer",
				"description":      "Units ordered",
				"minimum":          0,
				"exclusiveMinimum": true,
				"maximum":          100,
				"exclusiveMaximum": false,
			},
		},
	}
	assert.Empty(t, CheckSchema("schema", schema))
	assert.Empty(t, CheckExample("example", schema, map[string]any{"quantity": 100}))

	vs := CheckExample("example", schema, map[string]any{"quantity": 0})
	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "does not match its schema")
}

func TestCompileKeepsCallerSchema(t *testing.T) {
	schema := map[string]any{"type": "string", "nullable": true}
	_, err := Compile(schema)
	require.NoError(t, err)
	assert.Equal(t, "string", schema["type"])
	assert.Equal(t, true, schema["nullable"])
}

func TestViolationsCarryNoLocalPaths(t *testing.T) {
	vs := CheckExample("example", map[string]any{"type": "integer"}, "ten")
	require.Len(t, vs, 1)
	assert.NotContains(t, vs[0].Message, "file://")
}
