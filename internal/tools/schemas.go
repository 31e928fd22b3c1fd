// Package tools defines the MCP tool names and the request and response
// structures exchanged with MCP clients.
package tools

import (
	"strings"

	"github.com/localrivet/apifoxmcp/internal/document"
)

const (
	// ToolCheckConfig is the name of the check_apifox_config MCP tool
	ToolCheckConfig = "check_apifox_config"

	// ToolListEndpoints is the name of the list_api_endpoints MCP tool
	ToolListEndpoints = "list_api_endpoints"

	// ToolGetEndpointDetail is the name of the get_api_endpoint_detail MCP tool
	ToolGetEndpointDetail = "get_api_endpoint_detail"

	// ToolCreateEndpoint is the name of the create_api_endpoint MCP tool
	ToolCreateEndpoint = "create_api_endpoint"

	// ToolUpdateEndpoint is the name of the update_api_endpoint MCP tool
	ToolUpdateEndpoint = "update_api_endpoint"

	// ToolDeleteEndpoint is the name of the delete_api_endpoint MCP tool
	ToolDeleteEndpoint = "delete_api_endpoint"

	// ToolListSchemas is the name of the list_schemas MCP tool
	ToolListSchemas = "list_schemas"

	// ToolGetSchemaDetail is the name of the get_schema_detail MCP tool
	ToolGetSchemaDetail = "get_schema_detail"

	// ToolCreateSchema is the name of the create_schema MCP tool
	ToolCreateSchema = "create_schema"

	// ToolUpdateSchema is the name of the update_schema MCP tool
	ToolUpdateSchema = "update_schema"

	// ToolDeleteSchema is the name of the delete_schema MCP tool
	ToolDeleteSchema = "delete_schema"

	// ToolListFolders is the name of the list_folders MCP tool
	ToolListFolders = "list_folders"

	// ToolCreateFolder is the name of the create_folder MCP tool
	ToolCreateFolder = "create_folder"

	// ToolDeleteFolder is the name of the delete_folder MCP tool
	ToolDeleteFolder = "delete_folder"

	// ToolListTags is the name of the list_tags MCP tool
	ToolListTags = "list_tags"

	// ToolGetAPIsByTag is the name of the get_apis_by_tag MCP tool
	ToolGetAPIsByTag = "get_apis_by_tag"

	// ToolAddTagToAPI is the name of the add_tag_to_api MCP tool
	ToolAddTagToAPI = "add_tag_to_api"

	// ToolCheckResponses is the name of the check_api_responses MCP tool
	ToolCheckResponses = "check_api_responses"

	// ToolAuditResponses is the name of the audit_all_api_responses MCP tool
	ToolAuditResponses = "audit_all_api_responses"

	// ToolCheckNaming is the name of the check_path_naming_convention MCP tool
	ToolCheckNaming = "check_path_naming_convention"

	// ToolCheckConsistency is the name of the check_response_consistency MCP tool
	ToolCheckConsistency = "check_response_consistency"

	// ToolGenerateCRUD is the name of the generate_crud_apis MCP tool
	ToolGenerateCRUD = "generate_crud_apis"

	// ToolExportOpenAPI is the name of the export_openapi MCP tool
	ToolExportOpenAPI = "export_openapi"

	// ToolChangeHistory is the name of the get_change_history MCP tool
	ToolChangeHistory = "get_change_history"

	// ToolMetricsReport is the name of the get_metrics_report MCP tool
	ToolMetricsReport = "get_metrics_report"

	// DefaultListLimit is the number of entries listed when no limit is given
	DefaultListLimit = 50

	// DefaultHistoryLimit is the number of journal entries returned by default
	DefaultHistoryLimit = 20
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TextResponse is the output schema shared by every tool that answers with a report
type TextResponse struct {
	// Status indicates the result of the operation ("success", "warning" or "error")
	Status string `json:"status"`

	// Report is the human-readable result
	Report string `json:"report,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// WriteResponse is the output schema of tools that import into the project
type WriteResponse struct {
	// Status indicates the result of the operation ("success", "warning" or "error")
	Status string `json:"status"`

	// Report is the human-readable result
	Report string `json:"report,omitempty"`

	// Violations lists every documentation rule the input broke
	Violations []string `json:"violations,omitempty"`

	// EndpointCreated and the other counters are reported by the platform
	EndpointCreated int `json:"endpoint_created"`
	EndpointUpdated int `json:"endpoint_updated"`
	SchemaCreated   int `json:"schema_created"`
	SchemaUpdated   int `json:"schema_updated"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// CheckConfigRequest defines the input schema for check_apifox_config tool
type CheckConfigRequest struct{}

// ListRequest defines the input schema for list_api_endpoints and list_schemas
type ListRequest struct {
	// Keyword filters entries by title, path or name
	Keyword string `json:"keyword,omitempty"`

	// Limit is the maximum number of entries to list
	// If not specified, DefaultListLimit will be used
	Limit int `json:"limit,omitempty"`
}

// EndpointRequest identifies one endpoint, used by get_api_endpoint_detail and check_api_responses
type EndpointRequest struct {
	// Path is the endpoint path, e.g. /users/{id}
	Path string `json:"path"`

	// Method is the HTTP method
	Method string `json:"method"`
}

// EndpointWriteRequest defines the input schema for create_api_endpoint
type EndpointWriteRequest struct {
	// Title is the business name of the endpoint, e.g. "Create user"
	Title string `json:"title"`

	// Path is the endpoint path, e.g. /users/{id}
	Path string `json:"path"`

	// Method is the HTTP method
	Method string `json:"method"`

	// Description explains what the endpoint does
	Description string `json:"description"`

	// Tags places the endpoint in folders
	Tags []string `json:"tags,omitempty"`

	QueryParams  []document.Param `json:"query_params,omitempty"`
	PathParams   []document.Param `json:"path_params,omitempty"`
	HeaderParams []document.Param `json:"header_params,omitempty"`

	// RequestBodySchema is required for POST, PUT and PATCH
	RequestBodySchema map[string]any `json:"request_body_schema,omitempty"`

	// RequestBodyExample is required for POST, PUT and PATCH
	RequestBodyExample any `json:"request_body_example,omitempty"`

	// ResponseSchema describes the 200 response
	ResponseSchema map[string]any `json:"response_schema,omitempty"`

	// ResponseExample is the 200 response example
	ResponseExample any `json:"response_example,omitempty"`

	// Responses adds or overrides individual status codes
	Responses []document.Response `json:"responses,omitempty"`

	// FolderID is the target endpoint folder; 0 is the project root
	FolderID int `json:"folder_id,omitempty"`

	// ExtractSchemas lifts inline schemas into shared components
	// If not specified, the configured default is used
	ExtractSchemas *bool `json:"extract_schemas,omitempty"`

	// ResourceName overrides the component name derived from the path
	ResourceName string `json:"resource_name,omitempty"`
}

// Spec converts the request to an endpoint description
func (r EndpointWriteRequest) Spec(extractDefault bool) document.EndpointSpec {
	extract := extractDefault
	if r.ExtractSchemas != nil {
		extract = *r.ExtractSchemas
	}
	spec := document.EndpointSpec{
		Title:              r.Title,
		Path:               r.Path,
		Method:             r.Method,
		Description:        r.Description,
		Tags:               r.Tags,
		QueryParams:        r.QueryParams,
		PathParams:         r.PathParams,
		HeaderParams:       r.HeaderParams,
		RequestBodySchema:  r.RequestBodySchema,
		RequestBodyExample: r.RequestBodyExample,
		ResponseSchema:     r.ResponseSchema,
		ResponseExample:    r.ResponseExample,
		Responses:          r.Responses,
		ExtractSchemas:     extract,
		ResourceName:       r.ResourceName,
	}
	spec.Normalize()
	return spec
}

// UpdateEndpointRequest defines the input schema for update_api_endpoint tool.
// The fields repeat EndpointWriteRequest: tool arguments arrive flat and are
// not decoded into embedded structs.
type UpdateEndpointRequest struct {
	// Title is the business name of the endpoint
	Title string `json:"title"`

	// Path and Method identify the endpoint being updated
	Path   string `json:"path"`
	Method string `json:"method"`

	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`

	QueryParams  []document.Param `json:"query_params,omitempty"`
	PathParams   []document.Param `json:"path_params,omitempty"`
	HeaderParams []document.Param `json:"header_params,omitempty"`

	RequestBodySchema  map[string]any      `json:"request_body_schema,omitempty"`
	RequestBodyExample any                 `json:"request_body_example,omitempty"`
	ResponseSchema     map[string]any      `json:"response_schema,omitempty"`
	ResponseExample    any                 `json:"response_example,omitempty"`
	Responses          []document.Response `json:"responses,omitempty"`

	FolderID       int    `json:"folder_id,omitempty"`
	ExtractSchemas *bool  `json:"extract_schemas,omitempty"`
	ResourceName   string `json:"resource_name,omitempty"`

	// NewPath moves the endpoint to another path
	NewPath string `json:"new_path,omitempty"`

	// NewMethod changes the HTTP method
	NewMethod string `json:"new_method,omitempty"`
}

// Write returns the endpoint definition carried by the update
func (r UpdateEndpointRequest) Write() EndpointWriteRequest {
	return EndpointWriteRequest{
		Title:              r.Title,
		Path:               r.Path,
		Method:             r.Method,
		Description:        r.Description,
		Tags:               r.Tags,
		QueryParams:        r.QueryParams,
		PathParams:         r.PathParams,
		HeaderParams:       r.HeaderParams,
		RequestBodySchema:  r.RequestBodySchema,
		RequestBodyExample: r.RequestBodyExample,
		ResponseSchema:     r.ResponseSchema,
		ResponseExample:    r.ResponseExample,
		Responses:          r.Responses,
		FolderID:           r.FolderID,
		ExtractSchemas:     r.ExtractSchemas,
		ResourceName:       r.ResourceName,
	}
}

// Spec converts the request to an endpoint description at its current location
func (r UpdateEndpointRequest) Spec(extractDefault bool) document.EndpointSpec {
	return r.Write().Spec(extractDefault)
}

// Target returns the path and method the endpoint has after the update
func (r UpdateEndpointRequest) Target() (path, method string) {
	path, method = r.Path, r.Method
	if p := strings.TrimSpace(r.NewPath); p != "" {
		path = p
	}
	if m := strings.TrimSpace(r.NewMethod); m != "" {
		method = m
	}
	return strings.TrimSpace(path), strings.ToUpper(strings.TrimSpace(method))
}

// DeleteEndpointRequest defines the input schema for delete_api_endpoint tool
type DeleteEndpointRequest struct {
	Path   string `json:"path"`
	Method string `json:"method"`

	// Confirm must be true to proceed
	Confirm bool `json:"confirm"`
}

// SchemaNameRequest defines the input schema for get_schema_detail tool
type SchemaNameRequest struct {
	// Name is the component name, e.g. User
	Name string `json:"name"`
}

// SchemaWriteRequest defines the input schema for create_schema tool
type SchemaWriteRequest struct {
	// Name is the component name, e.g. User
	Name string `json:"name"`

	// SchemaType is one of string, integer, number, boolean, array, object, null
	SchemaType string `json:"schema_type,omitempty"`

	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Required    []string       `json:"required,omitempty"`

	// Items is the element schema of an array type
	Items map[string]any `json:"items,omitempty"`

	// Example is validated against the schema
	Example any `json:"example,omitempty"`

	// FolderID is the target schema folder; 0 is the project root
	FolderID int `json:"folder_id,omitempty"`
}

// Spec converts the request to a schema description
func (r SchemaWriteRequest) Spec() document.SchemaSpec {
	return document.SchemaSpec{
		Name:        strings.TrimSpace(r.Name),
		Type:        strings.TrimSpace(r.SchemaType),
		Description: r.Description,
		Properties:  r.Properties,
		Required:    r.Required,
		Items:       r.Items,
		Example:     r.Example,
	}
}

// UpdateSchemaRequest defines the input schema for update_schema tool.
// The fields repeat SchemaWriteRequest so the arguments decode flat.
type UpdateSchemaRequest struct {
	// Name is the schema being updated
	Name string `json:"name"`

	SchemaType  string         `json:"schema_type,omitempty"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Required    []string       `json:"required,omitempty"`
	Items       map[string]any `json:"items,omitempty"`
	Example     any            `json:"example,omitempty"`
	FolderID    int            `json:"folder_id,omitempty"`

	// NewName renames the schema; the old component is left in place
	NewName string `json:"new_name,omitempty"`
}

// Write returns the schema definition carried by the update
func (r UpdateSchemaRequest) Write() SchemaWriteRequest {
	return SchemaWriteRequest{
		Name:        r.Name,
		SchemaType:  r.SchemaType,
		Description: r.Description,
		Properties:  r.Properties,
		Required:    r.Required,
		Items:       r.Items,
		Example:     r.Example,
		FolderID:    r.FolderID,
	}
}

// Spec converts the request to a schema description under its current name
func (r UpdateSchemaRequest) Spec() document.SchemaSpec {
	return r.Write().Spec()
}

// DeleteSchemaRequest defines the input schema for delete_schema tool
type DeleteSchemaRequest struct {
	Name string `json:"name"`

	// Confirm must be true to proceed
	Confirm bool `json:"confirm"`
}

// ListFoldersRequest defines the input schema for list_folders tool
type ListFoldersRequest struct{}

// CreateFolderRequest defines the input schema for create_folder tool
type CreateFolderRequest struct {
	FolderName  string `json:"folder_name"`
	Description string `json:"description,omitempty"`
}

// DeleteFolderRequest defines the input schema for delete_folder tool
type DeleteFolderRequest struct {
	FolderName string `json:"folder_name"`

	// Confirm must be true to proceed
	Confirm bool `json:"confirm"`
}

// ListTagsRequest defines the input schema for list_tags tool
type ListTagsRequest struct{}

// TagRequest defines the input schema for get_apis_by_tag tool
type TagRequest struct {
	Tag string `json:"tag"`
}

// AddTagRequest defines the input schema for add_tag_to_api tool
type AddTagRequest struct {
	Path   string `json:"path"`
	Method string `json:"method"`

	// Tags replaces the endpoint's tag list
	Tags []string `json:"tags"`
}

// AuditRequest defines the input schema for audit_all_api_responses tool
type AuditRequest struct {
	// Tag limits the audit to endpoints carrying it
	Tag string `json:"tag,omitempty"`

	// ShowComplete also lists endpoints that pass
	ShowComplete bool `json:"show_complete,omitempty"`
}

// NamingRequest defines the input schema for check_path_naming_convention tool
type NamingRequest struct {
	// Style is kebab-case (default), snake_case or camelCase
	Style string `json:"style,omitempty"`
}

// ConsistencyRequest defines the input schema for check_response_consistency tool
type ConsistencyRequest struct{}

// GenerateCRUDRequest defines the input schema for generate_crud_apis tool
type GenerateCRUDRequest struct {
	// ResourceName is the PascalCase model name, e.g. Product
	ResourceName string `json:"resource_name"`

	// ResourceLabel is the human name used in titles, e.g. "product"
	ResourceLabel string `json:"resource_label,omitempty"`

	// BasePath is the collection path, e.g. /products
	BasePath string `json:"base_path"`

	// ModelSchema is an object schema whose properties all carry descriptions
	ModelSchema map[string]any `json:"model_schema"`

	IDField string `json:"id_field,omitempty"`
	IDType  string `json:"id_type,omitempty"`

	// Operations is a subset of list, get, create, update, delete
	Operations []string `json:"operations,omitempty"`

	Tags              []string `json:"tags,omitempty"`
	DescriptionPrefix string   `json:"description_prefix,omitempty"`
	FolderID          int      `json:"folder_id,omitempty"`
}

// Spec converts the request to a CRUD description
func (r GenerateCRUDRequest) Spec() document.CRUDSpec {
	return document.CRUDSpec{
		ResourceName:      strings.TrimSpace(r.ResourceName),
		Label:             strings.TrimSpace(r.ResourceLabel),
		BasePath:          r.BasePath,
		Model:             r.ModelSchema,
		IDField:           r.IDField,
		IDType:            r.IDType,
		Operations:        r.Operations,
		Tags:              r.Tags,
		DescriptionPrefix: r.DescriptionPrefix,
	}
}

// ExportRequest defines the input schema for export_openapi tool
type ExportRequest struct {
	// Format is json (default) or yaml
	Format string `json:"format,omitempty"`

	// AddFoldersToTags adds each endpoint's folder to its tags
	AddFoldersToTags bool `json:"add_folders_to_tags,omitempty"`
}

// ExportResponse defines the output schema for export_openapi tool
type ExportResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Format is the encoding of Document
	Format string `json:"format,omitempty"`

	// Document is the exported OpenAPI document
	Document string `json:"document,omitempty"`

	// Fingerprint identifies the document content
	Fingerprint string `json:"fingerprint,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// HistoryRequest defines the input schema for get_change_history tool
type HistoryRequest struct {
	// Limit is the number of most recent entries to return
	// If not specified, DefaultHistoryLimit will be used
	Limit int `json:"limit,omitempty"`
}

// MetricsRequest defines the input schema for get_metrics_report tool
type MetricsRequest struct{}
