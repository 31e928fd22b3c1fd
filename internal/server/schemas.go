package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/apifoxmcp/internal/apifox"
	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/report"
	"github.com/localrivet/apifoxmcp/internal/tools"
	"github.com/localrivet/apifoxmcp/internal/validation"
)

func hasSchema(doc *openapi3.T, name string) bool {
	if doc == nil || doc.Components == nil {
		return false
	}
	_, ok := doc.Components.Schemas[name]
	return ok
}

// handleListSchemas handles the list_schemas MCP tool call.
func (s *MCPApifoxToolServer) handleListSchemas(ctx *server.Context, req tools.ListRequest) (tools.TextResponse, error) {
	slog.Info("Processing list_schemas request", "keyword", req.Keyword, "limit", req.Limit)
	return s.readReport(tools.ToolListSchemas, false, func(doc *openapi3.T) (string, error) {
		return report.SchemaList(doc, req.Keyword, listLimit(req.Limit)), nil
	}), nil
}

// handleGetSchemaDetail handles the get_schema_detail MCP tool call.
func (s *MCPApifoxToolServer) handleGetSchemaDetail(ctx *server.Context, req tools.SchemaNameRequest) (tools.TextResponse, error) {
	slog.Info("Processing get_schema_detail request", "name", req.Name)
	return s.readReport(tools.ToolGetSchemaDetail, false, func(doc *openapi3.T) (string, error) {
		return report.SchemaDetail(doc, strings.TrimSpace(req.Name))
	}), nil
}

// writeSchema validates spec, builds its document and imports it
func (s *MCPApifoxToolServer) writeSchema(tool string, spec document.SchemaSpec, folderID int, behavior apifox.OverwriteBehavior, response *tools.WriteResponse) (apifox.Counters, bool) {
	if s.rejectViolations(tool, response, validation.ValidateSchema(spec)) {
		return apifox.Counters{}, false
	}

	doc, err := document.SchemaDocument(spec)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.InternalError(err, "failed to build schema document").WithField("schema", spec.Name))
		return apifox.Counters{}, false
	}

	opts := apifox.ImportOptions{
		SchemaFolderID:   folderID,
		EndpointBehavior: apifox.CreateNew,
		SchemaBehavior:   behavior,
	}
	counters, applied, err := s.importDocument(tool, "schema "+spec.Name, doc, opts, schemasChanged)
	setCounters(response, counters)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return counters, false
	}
	if !applied {
		response.Status = tools.StatusWarning
	}
	return counters, true
}

func schemaReport(heading string, spec document.SchemaSpec, counters apifox.Counters, status string) []string {
	typ := spec.Type
	if typ == "" {
		typ = "object"
	}
	lines := []string{
		heading + ": " + spec.Name,
		"Type: " + typ,
	}
	if typ == "object" {
		lines = append(lines, fmt.Sprintf("Properties: %d", len(spec.Properties)))
	}
	lines = append(lines, countersText(counters))
	if status == tools.StatusWarning {
		lines = append(lines, "",
			"Warning: the platform reported no schema created or updated.",
			"Check that folder_id exists and that the token has edit permission.")
	}
	return lines
}

// handleCreateSchema handles the create_schema MCP tool call.
func (s *MCPApifoxToolServer) handleCreateSchema(ctx *server.Context, req tools.SchemaWriteRequest) (tools.WriteResponse, error) {
	start := time.Now()
	spec := req.Spec()
	slog.Info("Processing create_schema request", "name", spec.Name, "type", spec.Type)

	response := tools.WriteResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolCreateSchema, start, response.Status) }()

	existing, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if hasSchema(existing, spec.Name) {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ConflictError(fmt.Errorf("schema %s", spec.Name),
			"schema already exists, use update_schema to change it"))
		return response, nil
	}

	counters, ok := s.writeSchema(tools.ToolCreateSchema, spec, req.FolderID, apifox.CreateNew, &response)
	if !ok {
		return response, nil
	}
	response.Report = strings.Join(schemaReport("Schema created", spec, counters, response.Status), "\n")
	return response, nil
}

// handleUpdateSchema handles the update_schema MCP tool call.
func (s *MCPApifoxToolServer) handleUpdateSchema(ctx *server.Context, req tools.UpdateSchemaRequest) (tools.WriteResponse, error) {
	start := time.Now()
	spec := req.Spec()
	oldName := spec.Name
	if n := strings.TrimSpace(req.NewName); n != "" {
		spec.Name = n
	}
	slog.Info("Processing update_schema request", "name", oldName, "new_name", spec.Name)

	response := tools.WriteResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolUpdateSchema, start, response.Status) }()

	existing, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if !hasSchema(existing, oldName) {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.NotFoundError(fmt.Errorf("schema %s", oldName),
			"schema to update does not exist, use create_schema"))
		return response, nil
	}
	renamed := spec.Name != oldName
	if renamed && hasSchema(existing, spec.Name) {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ConflictError(fmt.Errorf("schema %s", spec.Name),
			"another schema already uses the new name"))
		return response, nil
	}

	counters, ok := s.writeSchema(tools.ToolUpdateSchema, spec, req.FolderID, apifox.OverwriteExisting, &response)
	if !ok {
		return response, nil
	}
	lines := schemaReport("Schema updated", spec, counters, response.Status)
	if renamed {
		lines = append(lines, "",
			fmt.Sprintf("Note: %s was written as a new schema; %s still exists and $refs to it are unchanged.", spec.Name, oldName))
	}
	response.Report = strings.Join(lines, "\n")
	return response, nil
}

// handleDeleteSchema handles the delete_schema MCP tool call.
func (s *MCPApifoxToolServer) handleDeleteSchema(ctx *server.Context, req tools.DeleteSchemaRequest) (tools.TextResponse, error) {
	start := time.Now()
	name := strings.TrimSpace(req.Name)
	slog.Info("Processing delete_schema request", "name", name, "confirm", req.Confirm)

	response := tools.TextResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolDeleteSchema, start, response.Status) }()

	if err := s.platform.CheckConfig(); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if !req.Confirm {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(errors.New("confirm is false"),
			fmt.Sprintf("set confirm to true to delete schema %s", name)))
		return response, nil
	}

	doc, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if !hasSchema(doc, name) {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.NotFoundError(fmt.Errorf("schema %s", name), "no schema found"))
		return response, nil
	}

	users := schemaUsers(doc, name)
	lines := []string{
		"Schema deletion must be done in the Apifox client",
		rule,
		"Schema: " + name,
	}
	if len(users) > 0 {
		lines = append(lines, fmt.Sprintf("Referenced by %d endpoints:", len(users)))
		for _, u := range users {
			lines = append(lines, "   - "+u)
		}
		lines = append(lines, "Update those endpoints first or their $refs will break.")
	}
	lines = append(lines,
		"",
		"The open API can import and export but cannot delete schemas. To delete it:",
		"   1. Open the project in the Apifox client or web app",
		"   2. Open Data Models and find "+name,
		"   3. Right-click it and choose Delete")
	response.Status = tools.StatusWarning
	response.Report = strings.Join(lines, "\n")
	return response, nil
}

// schemaUsers lists the endpoints whose definition references the schema
func schemaUsers(doc *openapi3.T, name string) []string {
	var users []string
	for _, e := range report.Endpoints(doc) {
		frag, err := document.OperationFragment(doc, e.Path, e.Method, nil)
		if err != nil {
			continue
		}
		if hasSchema(frag, name) {
			users = append(users, e.Method+" "+e.Path)
		}
	}
	return users
}
