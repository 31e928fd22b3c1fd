package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Uncategorized is the tag reported for endpoints without tags
const Uncategorized = "Uncategorized"

// TagCount is the number of endpoints carrying a tag
type TagCount struct {
	Name        string
	Count       int
	Description string
}

func tagDescriptions(doc *openapi3.T) map[string]string {
	out := map[string]string{}
	if doc == nil {
		return out
	}
	for _, t := range doc.Tags {
		if t != nil {
			out[t.Name] = t.Description
		}
	}
	return out
}

// TagCounts counts endpoints per tag, sorted by count descending then name.
// Untagged endpoints count under Uncategorized when withUntagged is set.
func TagCounts(doc *openapi3.T, withUntagged bool) []TagCount {
	counts := map[string]int{}
	for _, e := range Endpoints(doc) {
		if len(e.Op.Tags) == 0 {
			if withUntagged {
				counts[Uncategorized]++
			}
			continue
		}
		for _, t := range e.Op.Tags {
			counts[t]++
		}
	}

	descs := tagDescriptions(doc)
	out := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TagCount{Name: name, Count: n, Description: descs[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TagList renders every tag with its endpoint count
func TagList(doc *openapi3.T) string {
	counts := TagCounts(doc, true)
	lines := []string{fmt.Sprintf("Tags (%d total)", len(counts)), rule}
	for _, c := range counts {
		line := fmt.Sprintf("  %s: %d endpoints", c.Name, c.Count)
		if c.Description != "" {
			line += " - " + c.Description
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", "Set the tags argument when creating an endpoint to tag it")
	return strings.Join(lines, "\n")
}

// EndpointsByTag renders the endpoints carrying tag. Uncategorized selects
// the untagged ones.
func EndpointsByTag(doc *openapi3.T, tag string) string {
	var matched []Endpoint
	for _, e := range Endpoints(doc) {
		if hasTag(e.Op, tag) || (tag == Uncategorized && len(e.Op.Tags) == 0) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("No endpoints tagged %q", tag)
	}

	lines := []string{
		"Tag: " + tag,
		fmt.Sprintf("Endpoints (%d total)", len(matched)),
		rule,
	}
	for _, e := range matched {
		lines = append(lines, fmt.Sprintf("[%-6s] %-40s | %s", e.Method, e.Path, e.Title()))
	}
	return strings.Join(lines, "\n")
}

func hasTag(op *openapi3.Operation, tag string) bool {
	for _, t := range op.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FolderList renders folders. Apifox folders surface as tags when exported
// with addFoldersToTags; declared tags come first in document order.
func FolderList(doc *openapi3.T) string {
	counts := map[string]int{}
	for _, c := range TagCounts(doc, false) {
		counts[c.Name] = c.Count
	}

	var names []string
	seen := map[string]bool{}
	if doc != nil {
		for _, t := range doc.Tags {
			if t != nil && !seen[t.Name] {
				names = append(names, t.Name)
				seen[t.Name] = true
			}
		}
	}
	var extra []string
	for name := range counts {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	if len(names) == 0 {
		return "No folders in this project"
	}
	lines := []string{"Folders", rule}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s (%d endpoints)", name, counts[name]))
	}
	return strings.Join(lines, "\n")
}
