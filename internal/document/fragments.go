package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// SchemaSpec is a named component schema as supplied by create_schema or update_schema
type SchemaSpec struct {
	Name        string
	Type        string
	Description string
	Properties  map[string]any
	Required    []string
	Items       map[string]any
	Example     any
}

// IsSchemaType reports whether t is an accepted schema type
func IsSchemaType(t string) bool {
	for _, allowed := range SchemaTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// JSONSchema renders the definition as a generic JSON Schema map. Properties and
// required apply to objects, items to arrays.
func (s SchemaSpec) JSONSchema() map[string]any {
	typ := s.Type
	if typ == "" {
		typ = "object"
	}
	schema := map[string]any{"type": typ}
	if s.Description != "" {
		schema["description"] = s.Description
	}
	if typ == "object" && len(s.Properties) > 0 {
		schema["properties"] = s.Properties
		if len(s.Required) > 0 {
			required := make([]any, len(s.Required))
			for i, r := range s.Required {
				required[i] = r
			}
			schema["required"] = required
		}
	}
	if typ == "array" && len(s.Items) > 0 {
		schema["items"] = s.Items
	}
	if s.Example != nil {
		schema["example"] = s.Example
	}
	return schema
}

// SchemaDocument builds an import document holding a single component schema
// and no paths.
func SchemaDocument(s SchemaSpec) (*openapi3.T, error) {
	doc := NewFragment("Schema: " + s.Name)
	if err := AddComponents(doc, map[string]map[string]any{s.Name: s.JSONSchema()}); err != nil {
		return nil, err
	}
	return doc, nil
}

// ToGeneric converts a document into plain maps and slices
func ToGeneric(doc *openapi3.T) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return generic, nil
}

// FromGeneric converts plain maps back into a document
func FromGeneric(generic map[string]any) (*openapi3.T, error) {
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := &openapi3.T{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Paths == nil {
		doc.Paths = openapi3.NewPaths()
	}
	return doc, nil
}

// ReachableComponents returns every component schema reachable from v,
// following references through the component table.
func ReachableComponents(v any, schemas map[string]any) map[string]any {
	seen := map[string]bool{}
	queue := map[string]bool{}
	CollectRefs(v, queue)
	for len(queue) > 0 {
		next := map[string]bool{}
		for name := range queue {
			if seen[name] {
				continue
			}
			seen[name] = true
			if schema, ok := schemas[name]; ok {
				CollectRefs(schema, next)
			}
		}
		queue = next
	}

	out := make(map[string]any, len(seen))
	for name := range seen {
		if schema, ok := schemas[name]; ok {
			out[name] = schema
		}
	}
	return out
}

// OperationFragment copies one operation out of an exported document together
// with every component schema it references. The edit func may change the
// operation's generic form before the fragment is built.
func OperationFragment(exported *openapi3.T, path, method string, edit func(op map[string]any)) (*openapi3.T, error) {
	generic, err := ToGeneric(exported)
	if err != nil {
		return nil, err
	}
	paths, _ := generic["paths"].(map[string]any)
	item, _ := paths[path].(map[string]any)
	if item == nil {
		return nil, fmt.Errorf("path %s not found", path)
	}
	lower := strings.ToLower(method)
	op, _ := item[lower].(map[string]any)
	if op == nil {
		return nil, fmt.Errorf("%s %s not found", strings.ToUpper(method), path)
	}
	if edit != nil {
		edit(op)
	}

	title, _ := op["summary"].(string)
	if title == "" {
		title = "API"
	}
	fragment := map[string]any{
		"openapi": FragmentVersion,
		"info":    map[string]any{"title": title, "version": fragmentInfoVer},
		"paths":   map[string]any{path: map[string]any{lower: op}},
	}

	components, _ := generic["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)
	if reached := ReachableComponents(op, schemas); len(reached) > 0 {
		fragment["components"] = map[string]any{"schemas": reached}
	}
	return FromGeneric(fragment)
}

// SetTags returns an edit func for OperationFragment that replaces the tag list
func SetTags(tags []string) func(op map[string]any) {
	return func(op map[string]any) {
		list := make([]any, len(tags))
		for i, t := range tags {
			list[i] = t
		}
		op["tags"] = list
	}
}

// ComponentNamesOf returns the component schema names of a document in order
func ComponentNamesOf(doc *openapi3.T) []string {
	if doc == nil || doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
