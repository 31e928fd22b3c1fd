package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

// Path naming styles
const (
	KebabCase = "kebab-case"
	SnakeCase = "snake_case"
	CamelCase = "camelCase"
)

// MaxListedPaths caps the offending paths shown by the naming report
const MaxListedPaths = 20

var styles = map[string]*regexp.Regexp{
	KebabCase: regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`),
	SnakeCase: regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`),
	CamelCase: regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`),
}

var paramName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// PathIssues lists the problems of a single path under a naming style
func PathIssues(path, style string) []string {
	check := styles[style]
	var issues []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := seg[1 : len(seg)-1]
			if name != strings.ToLower(name) {
				issues = append(issues, fmt.Sprintf("path parameter %s should be lower-case: {%s}", seg, strings.ToLower(name)))
			}
			if !paramName.MatchString(name) {
				issues = append(issues, fmt.Sprintf("path parameter %s contains invalid characters", seg))
			}
			continue
		}
		if !check.MatchString(seg) {
			issues = append(issues, fmt.Sprintf("segment %q does not follow %s", seg, style))
		}
	}
	return issues
}

// NamingReport checks every path of the document against style. An empty
// style means kebab-case.
func NamingReport(doc *openapi3.T, style string) (string, error) {
	if style == "" {
		style = KebabCase
	}
	if _, ok := styles[style]; !ok {
		return "", errortypes.ValidationError(fmt.Errorf("unsupported style %q", style), "choose kebab-case, snake_case or camelCase")
	}
	if doc == nil || doc.Paths == nil || doc.Paths.Len() == 0 {
		return "No endpoints in this project", nil
	}

	paths := make([]string, 0, doc.Paths.Len())
	for p := range doc.Paths.Map() {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	type offender struct {
		path   string
		issues []string
	}
	var bad []offender
	for _, p := range paths {
		if issues := PathIssues(p, style); len(issues) > 0 {
			bad = append(bad, offender{p, issues})
		}
	}

	lines := []string{
		"Path naming report",
		rule,
		"Style: " + style,
		fmt.Sprintf("Paths: %d", len(paths)),
		fmt.Sprintf("Conforming: %d", len(paths)-len(bad)),
		fmt.Sprintf("Not conforming: %d", len(bad)),
		"",
	}
	if len(bad) == 0 {
		lines = append(lines, "Every path follows the naming style.")
		return strings.Join(lines, "\n"), nil
	}

	lines = append(lines, rule, "Paths to fix:", "")
	for i, o := range bad {
		if i == MaxListedPaths {
			break
		}
		lines = append(lines, o.path)
		for _, issue := range o.issues {
			lines = append(lines, "   - "+issue)
		}
		lines = append(lines, "")
	}
	if len(bad) > MaxListedPaths {
		lines = append(lines, fmt.Sprintf("... %d more paths have problems", len(bad)-MaxListedPaths))
	}
	lines = append(lines, "", "kebab-case (e.g. /user-profiles) is recommended")
	return strings.Join(lines, "\n"), nil
}
