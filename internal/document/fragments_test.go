package document

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopDoc = `{
  "openapi": "3.0.1",
  "info": {"title": "Shop", "version": "1.0.0"},
  "paths": {
    "/orders/{id}": {
      "get": {
        "summary": "Get order",
        "tags": ["Orders"],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {
          "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Order"}}}}
        }
      }
    },
    "/ping": {
      "get": {"summary": "Ping", "responses": {"200": {"description": "OK"}}}
    }
  },
  "components": {
    "schemas": {
      "Order": {"type": "object", "properties": {"customer": {"$ref": "#/components/schemas/Customer"}}},
      "Customer": {"type": "object", "properties": {"address": {"$ref": "#/components/schemas/Address"}}},
      "Address": {"type": "object"},
      "Unrelated": {"type": "object"}
    }
  }
}`

func loadShop(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(shopDoc))
	require.NoError(t, err)
	return doc
}

func TestOperationFragmentCarriesReachableComponents(t *testing.T) {
	exported := loadShop(t)

	fragment, err := OperationFragment(exported, "/orders/{id}", "GET", SetTags([]string{"Sales", "Archive"}))
	require.NoError(t, err)

	assert.Equal(t, "Get order", fragment.Info.Title)
	assert.Equal(t, FragmentVersion, fragment.OpenAPI)
	assert.Equal(t, 1, fragment.Paths.Len())
	op := fragment.Paths.Value("/orders/{id}").Get
	require.NotNil(t, op)
	assert.Equal(t, []string{"Sales", "Archive"}, op.Tags)
	assert.Equal(t, []string{"Address", "Customer", "Order"}, ComponentNamesOf(fragment))

	// the exported document is not modified
	assert.Equal(t, []string{"Orders"}, exported.Paths.Value("/orders/{id}").Get.Tags)

	require.NoError(t, Validate(context.Background(), fragment))
}

func TestOperationFragmentNotFound(t *testing.T) {
	exported := loadShop(t)

	_, err := OperationFragment(exported, "/missing", "GET", nil)
	assert.ErrorContains(t, err, "path /missing not found")

	_, err = OperationFragment(exported, "/ping", "post", nil)
	assert.ErrorContains(t, err, "POST /ping not found")

	fragment, err := OperationFragment(exported, "/ping", "get", nil)
	require.NoError(t, err)
	assert.Nil(t, fragment.Components)
}

func TestSchemaDocument(t *testing.T) {
	spec := SchemaSpec{
		Name:        "Address",
		Description: "Postal address",
		Properties: map[string]any{
			"city": map[string]any{"type": "string", "description": "City"},
		},
		Required: []string{"city"},
		Items:    map[string]any{"type": "string"},
	}
	doc, err := SchemaDocument(spec)
	require.NoError(t, err)

	assert.Equal(t, "Schema: Address", doc.Info.Title)
	assert.Equal(t, 0, doc.Paths.Len())
	schema := doc.Components.Schemas["Address"].Value
	assert.True(t, schema.Type.Is("object"))
	assert.Equal(t, []string{"city"}, schema.Required)
	assert.Nil(t, schema.Items)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"paths":{}`)
}

func TestSchemaSpecArray(t *testing.T) {
	got := SchemaSpec{
		Type:       "array",
		Items:      map[string]any{"type": "string"},
		Properties: map[string]any{"ignored": map[string]any{}},
	}.JSONSchema()

	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, got)
	assert.True(t, IsSchemaType("null"))
	assert.False(t, IsSchemaType("date"))
}

func TestReachableComponentsCycles(t *testing.T) {
	schemas := map[string]any{
		"Node": map[string]any{"properties": map[string]any{"next": RefTo("Node"), "leaf": RefTo("Leaf")}},
		"Leaf": map[string]any{"type": "string"},
	}
	got := ReachableComponents(RefTo("Node"), schemas)
	assert.Len(t, got, 2)
}
