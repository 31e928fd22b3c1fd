package apifox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

// OverwriteBehavior controls how an import treats entities that already exist
type OverwriteBehavior string

const (
	CreateNew         OverwriteBehavior = "CREATE_NEW"
	OverwriteExisting OverwriteBehavior = "OVERWRITE_EXISTING"
)

// ExportOptions selects how the project is exported
type ExportOptions struct {
	// AddFoldersToTags adds each endpoint's folder to its tag list.
	AddFoldersToTags bool
}

// ImportOptions controls where imported entities land and how conflicts resolve
type ImportOptions struct {
	EndpointFolderID int
	SchemaFolderID   int
	EndpointBehavior OverwriteBehavior
	SchemaBehavior   OverwriteBehavior
}

// Counters are the entity counts reported by an import
type Counters struct {
	EndpointCreated int `json:"endpointCreated"`
	EndpointUpdated int `json:"endpointUpdated"`
	SchemaCreated   int `json:"schemaCreated"`
	SchemaUpdated   int `json:"schemaUpdated"`
}

// Endpoints is the number of endpoints created or updated
func (c Counters) Endpoints() int {
	return c.EndpointCreated + c.EndpointUpdated
}

// Schemas is the number of schemas created or updated
func (c Counters) Schemas() int {
	return c.SchemaCreated + c.SchemaUpdated
}

// Platform is the subset of the open API the tools depend on
type Platform interface {
	CheckConfig() error
	Export(ctx context.Context, opts ExportOptions) (*openapi3.T, error)
	Import(ctx context.Context, doc *openapi3.T, opts ImportOptions) (Counters, error)
}

var _ Platform = (*Client)(nil)

type exportScope struct {
	Type string `json:"type"`
}

type exportOptions struct {
	IncludeApifoxExtensionProperties bool `json:"includeApifoxExtensionProperties"`
	AddFoldersToTags                 bool `json:"addFoldersToTags"`
}

type exportRequest struct {
	Scope        exportScope   `json:"scope"`
	Options      exportOptions `json:"options"`
	OASVersion   string        `json:"oasVersion"`
	ExportFormat string        `json:"exportFormat"`
}

type importOptions struct {
	TargetEndpointFolderID    int               `json:"targetEndpointFolderId"`
	TargetSchemaFolderID      int               `json:"targetSchemaFolderId"`
	EndpointOverwriteBehavior OverwriteBehavior `json:"endpointOverwriteBehavior"`
	SchemaOverwriteBehavior   OverwriteBehavior `json:"schemaOverwriteBehavior"`
}

type importRequest struct {
	Input   string        `json:"input"`
	Options importOptions `json:"options"`
}

// Export downloads the whole project as one OpenAPI document. Concurrent
// identical exports share a single request; the returned document must be
// treated as read-only.
func (c *Client) Export(ctx context.Context, opts ExportOptions) (*openapi3.T, error) {
	if err := c.CheckConfig(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("export:%t", opts.AddFoldersToTags)
	v, err, shared := c.exports.Do(key, func() (interface{}, error) {
		return c.export(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Export shared with a concurrent caller", "key", key)
	}
	return v.(*openapi3.T), nil
}

func (c *Client) export(ctx context.Context, opts ExportOptions) (*openapi3.T, error) {
	payload := exportRequest{
		Scope: exportScope{Type: "ALL"},
		Options: exportOptions{
			IncludeApifoxExtensionProperties: true,
			AddFoldersToTags:                 opts.AddFoldersToTags,
		},
		OASVersion:   c.oasVersion,
		ExportFormat: "JSON",
	}

	endpoint := fmt.Sprintf("/projects/%s/export-openapi", url.PathEscape(c.projectID))
	result, err := c.Request(ctx, http.MethodPost, endpoint, payload, url.Values{"locale": {c.locale}})
	if err != nil {
		return nil, err
	}
	if len(result.Raw) == 0 {
		return nil, errortypes.InternalError(errors.New("empty body"), "export returned no document")
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	doc, err := loader.LoadFromData(result.Raw)
	if err != nil {
		return nil, errortypes.InternalError(err, "failed to parse exported document")
	}
	if doc.Paths == nil {
		doc.Paths = openapi3.NewPaths()
	}

	c.metrics.RecordExport()
	c.logger.Debug("Exported project", "project_id", c.projectID, "paths", doc.Paths.Len())
	return doc, nil
}

// Import sends an OpenAPI document to the project and returns the reported counters
func (c *Client) Import(ctx context.Context, doc *openapi3.T, opts ImportOptions) (Counters, error) {
	if err := c.CheckConfig(); err != nil {
		return Counters{}, err
	}
	if doc == nil {
		return Counters{}, errortypes.ValidationError(errors.New("nil document"), "nothing to import")
	}

	input, err := json.Marshal(doc)
	if err != nil {
		return Counters{}, errortypes.InternalError(err, "failed to encode document")
	}

	if opts.EndpointBehavior == "" {
		opts.EndpointBehavior = CreateNew
	}
	if opts.SchemaBehavior == "" {
		opts.SchemaBehavior = CreateNew
	}

	payload := importRequest{
		Input: string(input),
		Options: importOptions{
			TargetEndpointFolderID:    opts.EndpointFolderID,
			TargetSchemaFolderID:      opts.SchemaFolderID,
			EndpointOverwriteBehavior: opts.EndpointBehavior,
			SchemaOverwriteBehavior:   opts.SchemaBehavior,
		},
	}

	endpoint := fmt.Sprintf("/projects/%s/import-openapi", url.PathEscape(c.projectID))
	result, err := c.Request(ctx, http.MethodPost, endpoint, payload, url.Values{"locale": {c.locale}})
	if err != nil {
		return Counters{}, err
	}

	counters := parseCounters(result.Data)
	c.metrics.RecordImport(counters.EndpointCreated, counters.EndpointUpdated, counters.SchemaCreated, counters.SchemaUpdated)
	c.logger.Info("Imported document",
		"endpoint_created", counters.EndpointCreated,
		"endpoint_updated", counters.EndpointUpdated,
		"schema_created", counters.SchemaCreated,
		"schema_updated", counters.SchemaUpdated)
	return counters, nil
}

// parseCounters reads data.counters from an import reply; absent values are zero
func parseCounters(body map[string]any) Counters {
	data, _ := body["data"].(map[string]any)
	raw, _ := data["counters"].(map[string]any)
	return Counters{
		EndpointCreated: intValue(raw["endpointCreated"]),
		EndpointUpdated: intValue(raw["endpointUpdated"]),
		SchemaCreated:   intValue(raw["schemaCreated"]),
		SchemaUpdated:   intValue(raw["schemaUpdated"]),
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
