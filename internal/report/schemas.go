package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

func schemas(doc *openapi3.T) openapi3.Schemas {
	if doc == nil || doc.Components == nil {
		return nil
	}
	return doc.Components.Schemas
}

func sortedSchemaNames(s openapi3.Schemas) []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typeOf(s *openapi3.Schema) string {
	if s == nil || s.Type == nil || len(s.Type.Slice()) == 0 {
		return "object"
	}
	return strings.Join(s.Type.Slice(), "|")
}

// SchemaList renders the component schemas, filtered by name keyword
func SchemaList(doc *openapi3.T, keyword string, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	all := schemas(doc)
	if len(all) == 0 {
		return "No schemas in this project"
	}

	kw := strings.ToLower(strings.TrimSpace(keyword))
	var names []string
	for _, name := range sortedSchemaNames(all) {
		if kw == "" || strings.Contains(strings.ToLower(name), kw) {
			names = append(names, name)
		}
	}

	lines := []string{fmt.Sprintf("Schemas (%d total)", len(names)), rule}
	for i, name := range names {
		if i == limit {
			break
		}
		var s *openapi3.Schema
		if ref := all[name]; ref != nil {
			s = ref.Value
		}
		props := 0
		if s != nil {
			props = len(s.Properties)
		}
		lines = append(lines, fmt.Sprintf("- [%-8s] %s (%d properties)", typeOf(s), name, props))
	}
	if len(names) > limit {
		lines = append(lines, "", fmt.Sprintf("... %d more schemas not shown", len(names)-limit))
	}
	return strings.Join(lines, "\n")
}

// SchemaDetail renders one schema's properties, marking required ones with *
func SchemaDetail(doc *openapi3.T, name string) (string, error) {
	ref, ok := schemas(doc)[name]
	if !ok || ref == nil || ref.Value == nil {
		return "", errortypes.NotFoundError(fmt.Errorf("schema %s", name), "no schema found")
	}
	s := ref.Value

	lines := []string{
		"Schema: " + name,
		rule,
		"Description: " + orNone(s.Description),
		"Type: " + typeOf(s),
		"",
	}
	if len(s.Properties) > 0 {
		required := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			required[r] = true
		}
		lines = append(lines, fmt.Sprintf("Properties (%d):", len(s.Properties)))
		for _, prop := range sortedSchemaNames(s.Properties) {
			mark := " "
			if required[prop] {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s: %s", mark, prop, schemaTypeName(s.Properties[prop]))
			if p := s.Properties[prop]; p != nil && p.Value != nil && p.Value.Description != "" {
				line += " - " + p.Value.Description
			}
			lines = append(lines, line)
		}
		lines = append(lines, "", "* marks required fields")
	}
	if s.Items != nil {
		lines = append(lines, "Items: "+schemaTypeName(s.Items))
	}
	return strings.Join(lines, "\n"), nil
}
