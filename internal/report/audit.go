package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/localrivet/apifoxmcp/internal/document"
)

// auditedMethods are the methods covered by response audits
var auditedMethods = map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true}

// Completeness is the response coverage of one endpoint
type Completeness struct {
	Codes          []int
	RequiredClient []int
	RequiredServer []int
	HasSuccess     bool
	SuccessSchema  bool
	SuccessExample bool
	Missing        []string
}

// Complete reports whether nothing is missing
func (c Completeness) Complete() bool {
	return len(c.Missing) == 0
}

func (c Completeness) has(code int) bool {
	for _, have := range c.Codes {
		if have == code {
			return true
		}
	}
	return false
}

// CheckCompleteness compares an operation's responses with the error baseline
// and checks that the first 2xx response carries a schema and an example.
func CheckCompleteness(op *openapi3.Operation, method string) Completeness {
	c := Completeness{
		RequiredClient: append([]int{}, document.RequiredClientErrors...),
		RequiredServer: append([]int{}, document.RequiredServerErrors...),
	}
	if document.IsMutating(method) {
		c.RequiredClient = append(c.RequiredClient, document.MutatingClientErrors...)
	}

	var responses map[string]*openapi3.ResponseRef
	if op != nil && op.Responses != nil {
		responses = op.Responses.Map()
	}
	for key := range responses {
		if code, err := strconv.Atoi(key); err == nil {
			c.Codes = append(c.Codes, code)
		}
	}
	sort.Ints(c.Codes)

	for _, code := range c.Codes {
		if code < 200 || code >= 300 {
			continue
		}
		c.HasSuccess = true
		if ref := responses[strconv.Itoa(code)]; ref != nil && ref.Value != nil {
			for _, mt := range ref.Value.Content {
				if mt == nil {
					continue
				}
				if mt.Schema != nil {
					c.SuccessSchema = true
				}
				if mt.Example != nil || len(mt.Examples) > 0 {
					c.SuccessExample = true
				}
			}
		}
		break
	}

	switch {
	case !c.HasSuccess:
		c.Missing = append(c.Missing, "success response (2xx)")
	case !c.SuccessSchema:
		c.Missing = append(c.Missing, "success response schema")
	case !c.SuccessExample:
		c.Missing = append(c.Missing, "success response example")
	}
	for _, code := range append(append([]int{}, c.RequiredClient...), c.RequiredServer...) {
		if !c.has(code) {
			c.Missing = append(c.Missing, fmt.Sprintf("%d (%s)", code, document.StatusName(code)))
		}
	}
	return c
}

func codeList(codes []int) string {
	if len(codes) == 0 {
		return "none"
	}
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func mark(ok bool) string {
	if ok {
		return "[ok]"
	}
	return "[missing]"
}

// ResponseCheck renders the completeness report for one endpoint
func ResponseCheck(doc *openapi3.T, path, method string) (string, error) {
	e, err := Find(doc, path, method)
	if err != nil {
		return "", err
	}
	c := CheckCompleteness(e.Op, e.Method)

	lines := []string{
		"Response check: " + e.Title(),
		fmt.Sprintf("Path: %s %s", e.Method, e.Path),
		rule,
		"Existing codes: " + codeList(c.Codes),
		"",
		"--- Success (2xx) ---",
	}
	if c.HasSuccess {
		lines = append(lines,
			"   [ok] success response present",
			"      "+mark(c.SuccessSchema)+" schema",
			"      "+mark(c.SuccessExample)+" example")
	} else {
		lines = append(lines, "   [missing] success response")
	}

	lines = append(lines, "", "--- 4xx client errors ---")
	for _, code := range c.RequiredClient {
		lines = append(lines, fmt.Sprintf("   %s %d %s", mark(c.has(code)), code, document.StatusName(code)))
	}
	lines = append(lines, "", "--- 5xx server errors ---")
	for _, code := range c.RequiredServer {
		lines = append(lines, fmt.Sprintf("   %s %d %s", mark(c.has(code)), code, document.StatusName(code)))
	}

	lines = append(lines, "")
	if c.Complete() {
		lines = append(lines, "Responses are complete.")
	} else {
		lines = append(lines, fmt.Sprintf("%d items missing:", len(c.Missing)))
		for _, m := range c.Missing {
			lines = append(lines, "   - "+m)
		}
		lines = append(lines, "", "update_api_endpoint fills in every missing error response")
	}
	return strings.Join(lines, "\n"), nil
}

// AuditResult is the completeness of every audited endpoint
type AuditResult struct {
	Complete   []AuditedEndpoint
	Incomplete []AuditedEndpoint
}

// AuditedEndpoint pairs an endpoint with its completeness
type AuditedEndpoint struct {
	Endpoint
	Completeness
}

// Total is the number of audited endpoints
func (r AuditResult) Total() int {
	return len(r.Complete) + len(r.Incomplete)
}

// Audit checks every endpoint, optionally only those carrying tag
func Audit(doc *openapi3.T, tag string) AuditResult {
	var r AuditResult
	for _, e := range Endpoints(doc) {
		if !auditedMethods[e.Method] {
			continue
		}
		if tag != "" && !hasTag(e.Op, tag) {
			continue
		}
		a := AuditedEndpoint{Endpoint: e, Completeness: CheckCompleteness(e.Op, e.Method)}
		if a.Complete() {
			r.Complete = append(r.Complete, a)
		} else {
			r.Incomplete = append(r.Incomplete, a)
		}
	}
	return r
}

// AuditReport renders Audit. Complete endpoints are listed only with showComplete.
func AuditReport(doc *openapi3.T, tag string, showComplete bool) string {
	if len(Endpoints(doc)) == 0 {
		return "No endpoints in this project"
	}
	r := Audit(doc, tag)

	scope := "all endpoints"
	if tag != "" {
		scope = "tag [" + tag + "]"
	}
	lines := []string{
		"Response completeness audit",
		rule,
		"Scope: " + scope,
		fmt.Sprintf("Endpoints: %d", r.Total()),
		fmt.Sprintf("Complete: %d", len(r.Complete)),
		fmt.Sprintf("Incomplete: %d", len(r.Incomplete)),
		"",
	}

	if len(r.Incomplete) > 0 {
		lines = append(lines, rule, "Incomplete endpoints:", "")
		for _, a := range r.Incomplete {
			lines = append(lines,
				fmt.Sprintf("[%-6s] %s", a.Method, a.Path),
				"         Title: "+a.Title(),
				"         Codes: "+codeList(a.Codes),
				"         Missing: "+strings.Join(a.Missing, ", "),
				"")
		}
	}
	if showComplete && len(r.Complete) > 0 {
		lines = append(lines, rule, "Complete endpoints:", "")
		for _, a := range r.Complete {
			lines = append(lines, fmt.Sprintf("[%-6s] %s | %s", a.Method, a.Path, a.Title()))
		}
	}

	lines = append(lines, "")
	if len(r.Incomplete) > 0 {
		lines = append(lines, "Use update_api_endpoint or the Apifox client to add the missing responses")
	} else {
		lines = append(lines, "All endpoint responses are complete.")
	}
	return strings.Join(lines, "\n")
}
