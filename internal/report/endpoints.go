// Package report turns an exported OpenAPI document into the text reports
// returned by the query and audit tools. Nothing here talks to the network.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

// DefaultLimit is the list size used when a caller passes no limit
const DefaultLimit = 50

const rule = "=================================================="

// Endpoint is one operation of an exported document
type Endpoint struct {
	Method string
	Path   string
	Op     *openapi3.Operation
}

// Title is the summary, falling back to the operation id
func (e Endpoint) Title() string {
	if e.Op.Summary != "" {
		return e.Op.Summary
	}
	if e.Op.OperationID != "" {
		return e.Op.OperationID
	}
	return "Untitled"
}

// Endpoints lists every operation sorted by path, then by method order
func Endpoints(doc *openapi3.T) []Endpoint {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var out []Endpoint
	for _, p := range keys {
		item := paths[p]
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, m := range document.Methods {
			if op, ok := ops[m]; ok && op != nil {
				out = append(out, Endpoint{Method: m, Path: p, Op: op})
			}
		}
	}
	return out
}

// Find returns the operation at path and method
func Find(doc *openapi3.T, path, method string) (Endpoint, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if doc == nil || doc.Paths == nil || doc.Paths.Value(path) == nil {
		return Endpoint{}, errortypes.NotFoundError(fmt.Errorf("path %s", path), "no endpoint found")
	}
	op := doc.Paths.Value(path).Operations()[method]
	if op == nil {
		return Endpoint{}, errortypes.NotFoundError(fmt.Errorf("%s %s", method, path), "no endpoint found")
	}
	return Endpoint{Method: method, Path: path, Op: op}, nil
}

// Exists reports whether the document already holds path and method
func Exists(doc *openapi3.T, path, method string) (Endpoint, bool) {
	e, err := Find(doc, path, method)
	return e, err == nil
}

// EndpointList renders the endpoint list. keyword filters on title or path,
// case-insensitively.
func EndpointList(doc *openapi3.T, keyword string, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	all := Endpoints(doc)
	if len(all) == 0 {
		return "No endpoints in this project"
	}

	kw := strings.ToLower(strings.TrimSpace(keyword))
	var matched []Endpoint
	for _, e := range all {
		if kw == "" || strings.Contains(strings.ToLower(e.Title()), kw) || strings.Contains(strings.ToLower(e.Path), kw) {
			matched = append(matched, e)
		}
	}

	lines := []string{fmt.Sprintf("Endpoints (%d total)", len(matched)), rule}
	for i, e := range matched {
		if i == limit {
			break
		}
		line := fmt.Sprintf("[%-6s] %-40s | %s", e.Method, e.Path, e.Title())
		if len(e.Op.Tags) > 0 {
			line += " [" + strings.Join(e.Op.Tags, ", ") + "]"
		}
		lines = append(lines, line)
	}
	if len(matched) > limit {
		lines = append(lines, "", fmt.Sprintf("... %d more endpoints not shown", len(matched)-limit))
	}
	return strings.Join(lines, "\n")
}

func schemaTypeName(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return "any"
	}
	if name := document.ComponentName(ref.Ref); name != "" {
		return name
	}
	if ref.Value == nil || ref.Value.Type == nil || len(ref.Value.Type.Slice()) == 0 {
		return "any"
	}
	return strings.Join(ref.Value.Type.Slice(), "|")
}

func responseCodes(op *openapi3.Operation) []string {
	if op.Responses == nil {
		return nil
	}
	codes := make([]string, 0, op.Responses.Len())
	for code := range op.Responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

// EndpointDetail renders one endpoint's title, description, tags, parameters and responses
func EndpointDetail(doc *openapi3.T, path, method string) (string, error) {
	e, err := Find(doc, path, method)
	if err != nil {
		return "", err
	}

	lines := []string{
		"Endpoint: " + e.Title(),
		rule,
		fmt.Sprintf("Path: %s %s", e.Method, e.Path),
		"Description: " + orNone(e.Op.Description),
		"Tags: " + orNone(strings.Join(e.Op.Tags, ", ")),
		"",
		fmt.Sprintf("Parameters (%d):", len(e.Op.Parameters)),
	}
	if len(e.Op.Parameters) == 0 {
		lines = append(lines, "   none")
	}
	for _, p := range e.Op.Parameters {
		if p == nil || p.Value == nil {
			continue
		}
		line := fmt.Sprintf("   - [%s] %s: %s", p.Value.In, p.Value.Name, schemaTypeName(p.Value.Schema))
		if p.Value.Required {
			line += " (required)"
		}
		if p.Value.Description != "" {
			line += " - " + p.Value.Description
		}
		lines = append(lines, line)
	}

	codes := responseCodes(e.Op)
	lines = append(lines, "", fmt.Sprintf("Responses (%d):", len(codes)))
	for _, code := range codes {
		resp := e.Op.Responses.Value(code)
		desc := ""
		if resp != nil && resp.Value != nil && resp.Value.Description != nil {
			desc = *resp.Value.Description
		}
		lines = append(lines, fmt.Sprintf("   - %s: %s", code, desc))
	}
	return strings.Join(lines, "\n"), nil
}
