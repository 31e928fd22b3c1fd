package document

import (
	"reflect"
	"strings"
	"unicode"
)

// PascalCase joins the words of s, split on separators and case changes, in PascalCase
func PascalCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.' || r == '/'
	})
	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// Singular is a small English singulariser for resource names
func Singular(word string) string {
	lower := strings.ToLower(word)
	switch {
	case strings.HasSuffix(lower, "ies") && len(word) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "sses"),
		strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"),
		strings.HasSuffix(lower, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"):
		return word
	case strings.HasSuffix(lower, "s") && len(word) > 1:
		return word[:len(word)-1]
	}
	return word
}

func isParamSegment(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func segments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// IsCollectionPath reports whether a path ends in a static segment
func IsCollectionPath(path string) bool {
	segs := segments(path)
	return len(segs) > 0 && !isParamSegment(segs[len(segs)-1])
}

// ResourceName derives the component resource name. An explicit name wins;
// otherwise the last static path segment is PascalCased and singularised.
func ResourceName(path, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return PascalCase(explicit)
	}
	segs := segments(path)
	for i := len(segs) - 1; i >= 0; i-- {
		if isParamSegment(segs[i]) {
			continue
		}
		if name := PascalCase(Singular(segs[i])); name != "" {
			return name
		}
	}
	return "Resource"
}

// ComponentNames returns the request and success-response component names for
// an endpoint. An empty request name means the method takes no body component.
func ComponentNames(method, path, resource string) (request, response string) {
	switch strings.ToUpper(method) {
	case "POST":
		return "Create" + resource + "Request", "Create" + resource + "Response"
	case "PUT", "PATCH":
		return "Update" + resource + "Request", "Update" + resource + "Response"
	case "DELETE":
		return "", "Delete" + resource + "Response"
	case "GET":
		if IsCollectionPath(path) {
			return "", "List" + resource + "Response"
		}
		return "", "Get" + resource + "Response"
	}
	verb := PascalCase(strings.ToLower(method))
	return verb + resource + "Request", verb + resource + "Response"
}

// Extract moves the request and success schemas into components and points
// error bodies that use the standard schema at ErrorResponse. Schemas that are
// already references stay untouched.
func Extract(spec EndpointSpec, responses []Response) (EndpointSpec, []Response, map[string]map[string]any) {
	components := map[string]map[string]any{}
	resource := ResourceName(spec.Path, spec.ResourceName)
	requestName, responseName := ComponentNames(spec.Method, spec.Path, resource)

	if len(spec.RequestBodySchema) > 0 && !IsRef(spec.RequestBodySchema) {
		if requestName == "" {
			requestName = PascalCase(strings.ToLower(spec.Method)) + resource + "Request"
		}
		components[requestName] = spec.RequestBodySchema
		spec.RequestBodySchema = RefTo(requestName)
	}

	errorSchema := ErrorSchema()
	out := make([]Response, len(responses))
	for i, r := range responses {
		out[i] = r
		if len(r.Schema) == 0 || IsRef(r.Schema) {
			continue
		}
		switch {
		case r.Code == 200 && i == 0:
			components[responseName] = r.Schema
			out[i].Schema = RefTo(responseName)
		case r.Code >= 400 && reflect.DeepEqual(r.Schema, errorSchema):
			components[ErrorResponseComponent] = errorSchema
			out[i].Schema = RefTo(ErrorResponseComponent)
		}
	}
	if len(spec.ResponseSchema) > 0 && !IsRef(spec.ResponseSchema) {
		spec.ResponseSchema = RefTo(responseName)
	}

	return spec, out, components
}
