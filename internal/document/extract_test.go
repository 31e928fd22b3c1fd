package document

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestResourceName(t *testing.T) {
	tests := []struct {
		path, explicit, want string
	}{
		{"/users", "", "User"},
		{"/users/{id}", "", "User"},
		{"/api/v1/order-items/{itemId}", "", "OrderItem"},
		{"/categories", "", "Category"},
		{"/addresses", "", "Address"},
		{"/boxes/{id}/status", "", "Status"},
		{"/users", "account profile", "AccountProfile"},
		{"/{id}", "", "Resource"},
		{"/", "", "Resource"},
	}
	for _, tt := range tests {
		t.Run(tt.path+"|"+tt.explicit, func(t *testing.T) {
			assert.Equal(t, tt.want, ResourceName(tt.path, tt.explicit))
		})
	}
}

func TestComponentNames(t *testing.T) {
	tests := []struct {
		method, path, request, response string
	}{
		{"POST", "/users", "CreateUserRequest", "CreateUserResponse"},
		{"PUT", "/users/{id}", "UpdateUserRequest", "UpdateUserResponse"},
		{"patch", "/users/{id}", "UpdateUserRequest", "UpdateUserResponse"},
		{"DELETE", "/users/{id}", "", "DeleteUserResponse"},
		{"GET", "/users", "", "ListUserResponse"},
		{"GET", "/users/{id}", "", "GetUserResponse"},
		{"HEAD", "/users", "HeadUserRequest", "HeadUserResponse"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, resp := ComponentNames(tt.method, tt.path, "User")
			assert.Equal(t, tt.request, req)
			assert.Equal(t, tt.response, resp)
		})
	}
}

func TestExtractLeavesRefsAlone(t *testing.T) {
	spec := EndpointSpec{
		Method:            "POST",
		Path:              "/users",
		RequestBodySchema: RefTo("User"),
		ResponseSchema:    RefTo("User"),
	}
	responses := FinalResponses(spec)
	out, outResponses, components := Extract(spec, responses)

	assert.Equal(t, RefTo("User"), out.RequestBodySchema)
	assert.Equal(t, RefTo("User"), outResponses[0].Schema)
	assert.Equal(t, []string{ErrorResponseComponent}, keys(components))
}

func TestExtractCustomErrorSchemaStaysInline(t *testing.T) {
	custom := map[string]any{"type": "object", "properties": map[string]any{"reason": map[string]any{"type": "string"}}}
	spec := EndpointSpec{
		Method:    "GET",
		Path:      "/users",
		Responses: []Response{{Code: 404, Schema: custom}},
	}
	_, responses, components := Extract(spec, FinalResponses(spec))

	for _, r := range responses {
		if r.Code == 404 {
			assert.Equal(t, custom, r.Schema)
		}
	}
	_, hasList := components["ListUserResponse"]
	assert.False(t, hasList)
}

func keys(m map[string]map[string]any) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestPascalCaseProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.StringMatching(`[a-z]{1,8}([-_ ./][a-z]{1,8}){0,4}`).Draw(t, "in")
		out := PascalCase(in)

		if strings.ContainsAny(out, "-_ ./") {
			t.Fatalf("separator left in %q", out)
		}
		if !unicode.IsUpper([]rune(out)[0]) {
			t.Fatalf("%q does not start upper-case", out)
		}
		if strings.ToLower(out) != strings.NewReplacer("-", "", "_", "", " ", "", ".", "", "/", "").Replace(in) {
			t.Fatalf("%q lost letters of %q", out, in)
		}
	})
}

func TestSingularIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[a-zA-Z]{1,12}`).Draw(t, "word")
		once := Singular(word)
		if twice := Singular(once); twice != once {
			t.Fatalf("Singular(%q)=%q but Singular(%q)=%q", word, once, once, twice)
		}
	})
}
