package document

import (
	"fmt"
	"sort"
	"strings"
)

// Properties returns the properties map of a schema, or nil
func Properties(schema map[string]any) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	return props
}

// SortedKeys returns the keys of m in lexical order
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func schemaType(schema map[string]any) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

// MissingDescriptions walks a schema's properties and returns the path of
// every property without a description. Nested objects are reported as a.b
// and object array items as a[].b.
func MissingDescriptions(schema map[string]any) []string {
	return missingDescriptions(schema, "")
}

func missingDescriptions(schema map[string]any, prefix string) []string {
	var missing []string
	props := Properties(schema)
	for _, name := range SortedKeys(props) {
		prop, _ := props[name].(map[string]any)
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		if prop == nil {
			missing = append(missing, full)
			continue
		}
		if IsRef(prop) {
			continue
		}
		if desc, _ := prop["description"].(string); strings.TrimSpace(desc) == "" {
			missing = append(missing, full)
		}
		switch schemaType(prop) {
		case "object":
			if len(Properties(prop)) > 0 {
				missing = append(missing, missingDescriptions(prop, full)...)
			}
		case "array":
			if items, ok := prop["items"].(map[string]any); ok && schemaType(items) == "object" && len(Properties(items)) > 0 {
				missing = append(missing, missingDescriptions(items, full+"[]")...)
			}
		}
	}
	return missing
}

// Placeholders returns key="string" entries for example values that are a
// literal type name or empty string. Nested objects and array elements are searched.
func Placeholders(example any) []string {
	var found []string
	walkPlaceholders(example, "", &found)
	return found
}

func walkPlaceholders(v any, path string, found *[]string) {
	switch t := v.(type) {
	case map[string]any:
		for _, key := range SortedKeys(t) {
			full := key
			if path != "" {
				full = path + "." + key
			}
			value := t[key]
			if s, ok := value.(string); ok {
				if s == "string" || s == "" {
					*found = append(*found, fmt.Sprintf("%s=\"string\"", full))
				}
				continue
			}
			walkPlaceholders(value, full, found)
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if (s == "string" || s == "") && path != "" {
					*found = append(*found, fmt.Sprintf("%s[]=\"string\"", path))
				}
				continue
			}
			walkPlaceholders(item, path+"[]", found)
		}
	}
}
