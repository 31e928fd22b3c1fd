package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

func TestCheckCompleteness(t *testing.T) {
	doc := loadProject(t)

	list, err := Find(doc, "/users", "GET")
	require.NoError(t, err)
	c := CheckCompleteness(list.Op, list.Method)
	assert.True(t, c.Complete())
	assert.Equal(t, []int{200, 400, 401, 403, 404, 500, 502, 503}, c.Codes)

	create, err := Find(doc, "/users", "POST")
	require.NoError(t, err)
	c = CheckCompleteness(create.Op, create.Method)
	assert.True(t, c.HasSuccess)
	assert.True(t, c.SuccessSchema)
	assert.False(t, c.SuccessExample)
	assert.Equal(t, []int{400, 401, 403, 404, 409, 422}, c.RequiredClient)
	assert.Equal(t, []string{
		"success response example",
		"401 (Unauthorized)",
		"403 (Forbidden)",
		"404 (Not Found)",
		"409 (Conflict)",
		"422 (Unprocessable Entity)",
		"500 (Internal Server Error)",
		"502 (Bad Gateway)",
		"503 (Service Unavailable)",
	}, c.Missing)

	del, err := Find(doc, "/Order_Items/{ID}", "DELETE")
	require.NoError(t, err)
	c = CheckCompleteness(del.Op, del.Method)
	assert.Equal(t, "success response schema", c.Missing[0])
	assert.Len(t, c.RequiredClient, 4)

	c = CheckCompleteness(nil, "GET")
	assert.Equal(t, "success response (2xx)", c.Missing[0])
}

func TestResponseCheck(t *testing.T) {
	doc := loadProject(t)

	out, err := ResponseCheck(doc, "/users", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "Existing codes: 200, 400, 401, 403, 404, 500, 502, 503")
	assert.Contains(t, out, "[ok] 404 Not Found")
	assert.Contains(t, out, "Responses are complete.")

	out, err = ResponseCheck(doc, "/users", "POST")
	require.NoError(t, err)
	assert.Contains(t, out, "[missing] example")
	assert.Contains(t, out, "[missing] 409 Conflict")
	assert.Contains(t, out, "9 items missing:")

	_, err = ResponseCheck(doc, "/users", "PATCH")
	assert.True(t, errortypes.Is(err, errortypes.ErrorTypeNotFound))
}

func TestAudit(t *testing.T) {
	doc := loadProject(t)

	r := Audit(doc, "")
	assert.Equal(t, 4, r.Total())
	assert.Len(t, r.Complete, 1)
	assert.Len(t, r.Incomplete, 3)

	admin := Audit(doc, "Admin")
	require.Equal(t, 1, admin.Total())
	assert.Equal(t, "/users/{userId}", admin.Incomplete[0].Path)

	out := AuditReport(doc, "", false)
	assert.Contains(t, out, "Scope: all endpoints")
	assert.Contains(t, out, "Complete: 1")
	assert.Contains(t, out, "Incomplete: 3")
	assert.NotContains(t, out, "Complete endpoints:")

	withComplete := AuditReport(doc, "Users", true)
	assert.Contains(t, withComplete, "Scope: tag [Users]")
	assert.Contains(t, withComplete, "Complete endpoints:")
	assert.Contains(t, withComplete, "[GET   ] /users | List users")
}

func TestNamingReport(t *testing.T) {
	doc := loadProject(t)

	out, err := NamingReport(doc, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Style: kebab-case")
	assert.Contains(t, out, "Paths: 4")
	assert.Contains(t, out, "Not conforming: 2")
	assert.Contains(t, out, `segment "Order_Items" does not follow kebab-case`)
	assert.Contains(t, out, "path parameter {ID} should be lower-case: {id}")
	assert.Contains(t, out, "path parameter {userId} should be lower-case: {userid}")

	_, err = NamingReport(doc, "PascalCase")
	assert.True(t, errortypes.IsValidationError(err))
}

func TestPathIssues(t *testing.T) {
	tests := []struct {
		path, style string
		issues      int
	}{
		{"/user-profiles/{id}", KebabCase, 0},
		{"/user_profiles", KebabCase, 1},
		{"/user_profiles", SnakeCase, 0},
		{"/userProfiles", CamelCase, 0},
		{"/userProfiles", SnakeCase, 1},
		{"/V2/orders", KebabCase, 1},
		{"/v2/orders", KebabCase, 0},
		{"/orders/{order-id}", KebabCase, 1},
		{"/orders/{Order-Id}", KebabCase, 2},
	}
	for _, tt := range tests {
		t.Run(tt.style+tt.path, func(t *testing.T) {
			assert.Len(t, PathIssues(tt.path, tt.style), tt.issues)
		})
	}
}

func TestNamingReportCapsList(t *testing.T) {
	doc := loadProject(t)
	for i := 0; i < MaxListedPaths+3; i++ {
		doc.Paths.Set("/Bad_"+strings.Repeat("x", i+1), doc.Paths.Value("/health"))
	}
	out, err := NamingReport(doc, KebabCase)
	require.NoError(t, err)
	assert.Contains(t, out, "... 5 more paths have problems")
}

func TestConsistency(t *testing.T) {
	doc := loadProject(t)

	c := SurveyConsistency(doc)
	assert.Equal(t, 4, c.Endpoints)
	require.Len(t, c.Success, 3)
	require.Len(t, c.Errors, 2)
	assert.Equal(t, Pattern{Fields: []string{"code", "message"}, Count: 7}, c.Errors[0])
	assert.Equal(t, map[string]int{"page": 1, "page_size": 1, "total": 2, "pageNum": 1}, c.Pagination)

	out := ConsistencyReport(doc)
	assert.Contains(t, out, "Shapes are consistent (3 variants)")
	assert.Contains(t, out, "Page number field varies: page, pageNum")
	assert.NotContains(t, out, "Page size field varies")
	assert.Contains(t, out, "   - [code, message]: 7 responses")
	assert.Contains(t, out, "   - total: 2")
}
