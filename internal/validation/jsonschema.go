package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/localrivet/apifoxmcp/internal/document"
)

const schemaResource = "mem://inline-schema.json"

// SelfContained reports whether a schema has no $ref to resolve
func SelfContained(schema map[string]any) bool {
	refs := map[string]bool{}
	document.CollectRefs(schema, refs)
	return len(refs) == 0
}

// normalize round-trips a value through JSON so maps, slices and numbers have
// the shapes the validator understands.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// keywords whose values are data rather than subschemas
var dataKeywords = map[string]bool{
	"example":  true,
	"examples": true,
	"default":  true,
	"enum":     true,
	"const":    true,
}

// fromOpenAPI rewrites the OpenAPI 3.0 schema dialect into draft 2020-12:
// nullable widens the type with "null", and boolean exclusiveMinimum and
// exclusiveMaximum take the value of minimum and maximum.
func fromOpenAPI(v any) any {
	switch node := v.(type) {
	case []any:
		for i, item := range node {
			node[i] = fromOpenAPI(item)
		}
		return node
	case map[string]any:
		for key, child := range node {
			if !dataKeywords[key] {
				node[key] = fromOpenAPI(child)
			}
		}
		if nullable, ok := node["nullable"].(bool); ok {
			delete(node, "nullable")
			if nullable {
				allowNull(node)
			}
		}
		exclusiveBound(node, "exclusiveMinimum", "minimum")
		exclusiveBound(node, "exclusiveMaximum", "maximum")
		return node
	}
	return v
}

func allowNull(node map[string]any) {
	switch t := node["type"].(type) {
	case string:
		if t != "null" {
			node["type"] = []any{t, "null"}
		}
	case []any:
		for _, name := range t {
			if name == "null" {
				return
			}
		}
		node["type"] = append(t, "null")
	}
	if enum, ok := node["enum"].([]any); ok {
		node["enum"] = append(enum, nil)
	}
}

func exclusiveBound(node map[string]any, exclusive, bound string) {
	flag, ok := node[exclusive].(bool)
	if !ok {
		return
	}
	delete(node, exclusive)
	if limit, has := node[bound]; flag && has {
		node[exclusive] = limit
		delete(node, bound)
	}
}

// Compile compiles a self-contained OpenAPI 3.0 schema as draft 2020-12
func Compile(schema map[string]any) (*jsonschema.Schema, error) {
	doc, err := normalize(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	doc = fromOpenAPI(doc)
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource(schemaResource, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaResource)
}

func oneLine(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}

// CheckSchema reports a schema that does not compile. Schemas holding $ref
// are skipped.
func CheckSchema(field string, schema map[string]any) Violations {
	var vs Violations
	if len(schema) == 0 || !SelfContained(schema) {
		return vs
	}
	if _, err := Compile(schema); err != nil {
		vs.add(field, "%s is not a valid JSON Schema: %s", field, oneLine(err))
	}
	return vs
}

// CheckExample compiles the schema and checks that the example conforms to it.
// Nothing is checked when either side is missing or the schema holds $ref.
func CheckExample(field string, schema map[string]any, example any) Violations {
	var vs Violations
	if len(schema) == 0 || !SelfContained(schema) {
		return vs
	}
	sch, err := Compile(schema)
	if err != nil {
		vs.add(field, "schema for %s is not a valid JSON Schema: %s", field, oneLine(err))
		return vs
	}
	if example == nil {
		return vs
	}
	inst, err := normalize(example)
	if err != nil {
		vs.add(field, "%s cannot be encoded as JSON: %v", field, err)
		return vs
	}
	if err := sch.Validate(inst); err != nil {
		vs.add(field, "%s does not match its schema: %s", field, oneLine(err))
	}
	return vs
}
