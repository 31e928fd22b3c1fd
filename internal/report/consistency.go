package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Pagination field spellings, grouped by meaning
var (
	PageFields  = []string{"page", "pageNum", "pageNumber", "current"}
	SizeFields  = []string{"pageSize", "page_size", "size", "limit"}
	TotalFields = []string{"total", "totalCount", "total_count"}
)

const (
	maxSuccessPatterns  = 3
	maxErrorPatterns    = 2
	shownSuccessPattern = 5
	shownErrorPattern   = 3
)

// Pattern is a response property set and how often it occurs
type Pattern struct {
	Fields []string
	Count  int
}

func (p Pattern) String() string {
	if len(p.Fields) == 0 {
		return "no fields"
	}
	return strings.Join(p.Fields, ", ")
}

// Consistency is the response shape survey of a document
type Consistency struct {
	Endpoints  int
	Success    []Pattern
	Errors     []Pattern
	Pagination map[string]int
}

func tally(counts map[string]*Pattern, fields []string) {
	key := strings.Join(fields, ",")
	if p, ok := counts[key]; ok {
		p.Count++
		return
	}
	counts[key] = &Pattern{Fields: fields, Count: 1}
}

func ranked(counts map[string]*Pattern) []Pattern {
	out := make([]Pattern, 0, len(counts))
	for _, p := range counts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].String() < out[j].String()
	})
	return out
}

// SurveyConsistency collects the property sets of every JSON response body
func SurveyConsistency(doc *openapi3.T) Consistency {
	c := Consistency{Pagination: map[string]int{}}
	success := map[string]*Pattern{}
	errs := map[string]*Pattern{}
	paging := append(append(append([]string{}, PageFields...), SizeFields...), TotalFields...)

	for _, e := range Endpoints(doc) {
		if !auditedMethods[e.Method] {
			continue
		}
		c.Endpoints++
		if e.Op.Responses == nil {
			continue
		}
		for key, ref := range e.Op.Responses.Map() {
			code, err := strconv.Atoi(key)
			if err != nil || ref == nil || ref.Value == nil {
				continue
			}
			for _, mt := range ref.Value.Content {
				var props openapi3.Schemas
				if mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
					props = mt.Schema.Value.Properties
				}
				fields := sortedSchemaNames(props)
				switch {
				case code >= 200 && code < 300:
					tally(success, fields)
					for _, f := range paging {
						if _, ok := props[f]; ok {
							c.Pagination[f]++
						}
					}
				case code >= 400 && code < 600:
					tally(errs, fields)
				}
			}
		}
	}
	c.Success = ranked(success)
	c.Errors = ranked(errs)
	return c
}

func variants(found map[string]int, group []string) []string {
	var out []string
	for _, f := range group {
		if found[f] > 0 {
			out = append(out, f)
		}
	}
	return out
}

// ConsistencyReport renders SurveyConsistency with recommendations
func ConsistencyReport(doc *openapi3.T) string {
	if len(Endpoints(doc)) == 0 {
		return "No endpoints in this project"
	}
	c := SurveyConsistency(doc)

	lines := []string{
		"Response consistency report",
		rule,
		fmt.Sprintf("Endpoints: %d", c.Endpoints),
		"",
		"--- Success responses ---",
	}
	if len(c.Success) <= maxSuccessPatterns {
		lines = append(lines, fmt.Sprintf("Shapes are consistent (%d variants)", len(c.Success)))
	} else {
		lines = append(lines, fmt.Sprintf("Shapes are inconsistent (%d variants)", len(c.Success)))
	}
	for i, p := range c.Success {
		if i == shownSuccessPattern {
			break
		}
		lines = append(lines, fmt.Sprintf("   - [%s]: %d endpoints", p, p.Count))
	}

	if len(c.Pagination) > 0 {
		lines = append(lines, "", "--- Pagination fields ---")
		pages := variants(c.Pagination, PageFields)
		sizes := variants(c.Pagination, SizeFields)
		totals := variants(c.Pagination, TotalFields)
		if len(pages) > 1 {
			lines = append(lines, "Page number field varies: "+strings.Join(pages, ", "))
		}
		if len(sizes) > 1 {
			lines = append(lines, "Page size field varies: "+strings.Join(sizes, ", "))
		}
		if len(totals) > 1 {
			lines = append(lines, "Total field varies: "+strings.Join(totals, ", "))
		}
		if len(pages) <= 1 && len(sizes) <= 1 && len(totals) <= 1 {
			lines = append(lines, "Pagination fields are named consistently")
		}
		names := make([]string, 0, len(c.Pagination))
		for f := range c.Pagination {
			names = append(names, f)
		}
		sort.Slice(names, func(i, j int) bool {
			if c.Pagination[names[i]] != c.Pagination[names[j]] {
				return c.Pagination[names[i]] > c.Pagination[names[j]]
			}
			return names[i] < names[j]
		})
		for _, f := range names {
			lines = append(lines, fmt.Sprintf("   - %s: %d", f, c.Pagination[f]))
		}
	}

	lines = append(lines, "", "--- Error responses ---")
	if len(c.Errors) <= maxErrorPatterns {
		lines = append(lines, fmt.Sprintf("Shapes are consistent (%d variants)", len(c.Errors)))
	} else {
		lines = append(lines, fmt.Sprintf("Shapes are inconsistent (%d variants)", len(c.Errors)))
	}
	for i, p := range c.Errors {
		if i == shownErrorPattern {
			break
		}
		lines = append(lines, fmt.Sprintf("   - [%s]: %d responses", p, p.Count))
	}

	lines = append(lines,
		"",
		"--- Recommended shapes ---",
		"   success: {code, message, data}",
		"   paged:   {items, total, page, page_size}",
		"   error:   {code, message, details}")
	return strings.Join(lines, "\n")
}
