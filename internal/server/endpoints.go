package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
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

func listLimit(limit int) int {
	if limit <= 0 {
		return tools.DefaultListLimit
	}
	return limit
}

// handleListEndpoints handles the list_api_endpoints MCP tool call.
func (s *MCPApifoxToolServer) handleListEndpoints(ctx *server.Context, req tools.ListRequest) (tools.TextResponse, error) {
	slog.Info("Processing list_api_endpoints request", "keyword", req.Keyword, "limit", req.Limit)
	return s.readReport(tools.ToolListEndpoints, false, func(doc *openapi3.T) (string, error) {
		return report.EndpointList(doc, req.Keyword, listLimit(req.Limit)), nil
	}), nil
}

// handleGetEndpointDetail handles the get_api_endpoint_detail MCP tool call.
func (s *MCPApifoxToolServer) handleGetEndpointDetail(ctx *server.Context, req tools.EndpointRequest) (tools.TextResponse, error) {
	slog.Info("Processing get_api_endpoint_detail request", "path", req.Path, "method", req.Method)
	return s.readReport(tools.ToolGetEndpointDetail, false, func(doc *openapi3.T) (string, error) {
		return report.EndpointDetail(doc, strings.TrimSpace(req.Path), req.Method)
	}), nil
}

// rejectViolations fills response with the violations of a write and reports whether there were any
func (s *MCPApifoxToolServer) rejectViolations(tool string, response *tools.WriteResponse, vs validation.Violations) bool {
	if len(vs) == 0 {
		return false
	}
	s.metrics.RecordViolations(tool, len(vs))
	slog.Warn("Rejected definition", "tool", tool, "violations", len(vs))
	response.Status = tools.StatusError
	response.Violations = vs.Messages()
	response.Error = vs.Error()
	return true
}

// buildEndpoint assembles and checks the import document for an endpoint write
func (s *MCPApifoxToolServer) buildEndpoint(spec document.EndpointSpec) (*openapi3.T, []document.Response, error) {
	doc, responses, err := document.Assemble(spec)
	if err != nil {
		return nil, nil, errortypes.InternalError(err, "failed to assemble endpoint document").
			WithField("path", spec.Path).
			WithField("method", spec.Method)
	}
	if err := document.Validate(s.ctx, doc); err != nil {
		return nil, nil, errortypes.ValidationError(err, "assembled document is not valid OpenAPI").
			WithField("path", spec.Path).
			WithField("method", spec.Method)
	}
	return doc, responses, nil
}

func codesText(responses []document.Response) string {
	codes := document.ResponseCodes(responses)
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func countersText(c apifox.Counters) string {
	return fmt.Sprintf("Imported: endpoints %d created, %d updated; schemas %d created, %d updated",
		c.EndpointCreated, c.EndpointUpdated, c.SchemaCreated, c.SchemaUpdated)
}

func schemaBehavior(extract bool) apifox.OverwriteBehavior {
	if extract {
		return apifox.OverwriteExisting
	}
	return apifox.CreateNew
}

// writeEndpointReport renders the outcome of an endpoint import
func writeEndpointReport(heading string, spec document.EndpointSpec, doc *openapi3.T, responses []document.Response, counters apifox.Counters) []string {
	lines := []string{
		heading + ": " + spec.Title,
		fmt.Sprintf("Path: %s %s", spec.Method, spec.Path),
		"Responses: " + codesText(responses),
	}
	if names := document.ComponentNamesOf(doc); len(names) > 0 {
		lines = append(lines, "Components: "+strings.Join(names, ", "))
	}
	return append(lines, countersText(counters))
}

// handleCreateEndpoint handles the create_api_endpoint MCP tool call.
func (s *MCPApifoxToolServer) handleCreateEndpoint(ctx *server.Context, req tools.EndpointWriteRequest) (tools.WriteResponse, error) {
	start := time.Now()
	spec := req.Spec(s.settings.ExtractSchemas)
	slog.Info("Processing create_api_endpoint request", "path", spec.Path, "method", spec.Method, "extract_schemas", spec.ExtractSchemas)

	response := tools.WriteResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolCreateEndpoint, start, response.Status) }()

	existing, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if e, ok := report.Exists(existing, spec.Path, spec.Method); ok {
		err := errortypes.ConflictError(fmt.Errorf("%s %s (%s)", e.Method, e.Path, e.Title()),
			"endpoint already exists, use update_api_endpoint to change it")
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	if s.rejectViolations(tools.ToolCreateEndpoint, &response, validation.ValidateEndpoint(spec)) {
		return response, nil
	}

	doc, responses, err := s.buildEndpoint(spec)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	opts := apifox.ImportOptions{
		EndpointFolderID: req.FolderID,
		EndpointBehavior: apifox.CreateNew,
		SchemaBehavior:   schemaBehavior(spec.ExtractSchemas),
	}
	target := spec.Method + " " + spec.Path
	counters, applied, err := s.importDocument(tools.ToolCreateEndpoint, target, doc, opts, endpointsChanged)
	setCounters(&response, counters)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	lines := writeEndpointReport("Endpoint created", spec, doc, responses, counters)
	if !applied {
		response.Status = tools.StatusWarning
		lines = append(lines, "",
			"Warning: the platform reported no endpoint created.",
			"Check that folder_id exists and that the endpoint was not created concurrently.")
	}
	response.Report = strings.Join(lines, "\n")
	slog.Info("Created endpoint", "target", target, "endpoint_created", counters.EndpointCreated)
	return response, nil
}

// handleUpdateEndpoint handles the update_api_endpoint MCP tool call.
func (s *MCPApifoxToolServer) handleUpdateEndpoint(ctx *server.Context, req tools.UpdateEndpointRequest) (tools.WriteResponse, error) {
	start := time.Now()
	spec := req.Spec(s.settings.ExtractSchemas)
	oldPath, oldMethod := spec.Path, spec.Method
	spec.Path, spec.Method = req.Target()
	slog.Info("Processing update_api_endpoint request", "path", oldPath, "method", oldMethod, "new_path", spec.Path, "new_method", spec.Method)

	response := tools.WriteResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolUpdateEndpoint, start, response.Status) }()

	existing, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if _, err := report.Find(existing, oldPath, oldMethod); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.NotFoundError(err, "endpoint to update does not exist, use create_api_endpoint"))
		return response, nil
	}
	moved := spec.Path != oldPath || spec.Method != oldMethod
	if moved {
		if e, ok := report.Exists(existing, spec.Path, spec.Method); ok {
			err := errortypes.ConflictError(fmt.Errorf("%s %s (%s)", e.Method, e.Path, e.Title()),
				"another endpoint already uses the new path and method")
			response.Status = tools.StatusError
			response.Error = fail(err)
			return response, nil
		}
	}

	if s.rejectViolations(tools.ToolUpdateEndpoint, &response, validation.ValidateEndpoint(spec)) {
		return response, nil
	}

	doc, responses, err := s.buildEndpoint(spec)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	opts := apifox.ImportOptions{
		EndpointFolderID: req.FolderID,
		EndpointBehavior: apifox.OverwriteExisting,
		SchemaBehavior:   schemaBehavior(spec.ExtractSchemas),
	}
	target := spec.Method + " " + spec.Path
	counters, applied, err := s.importDocument(tools.ToolUpdateEndpoint, target, doc, opts, endpointsChanged)
	setCounters(&response, counters)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	lines := writeEndpointReport("Endpoint updated", spec, doc, responses, counters)
	if moved {
		lines = append(lines, "",
			fmt.Sprintf("Note: the endpoint was written at its new location; %s %s still exists.", oldMethod, oldPath),
			"Delete the old endpoint in the Apifox client once the new one is confirmed.")
	}
	if !applied {
		response.Status = tools.StatusWarning
		lines = append(lines, "",
			"Warning: the platform reported no endpoint created or updated.",
			"Check that folder_id exists and that the token has edit permission.")
	}
	response.Report = strings.Join(lines, "\n")
	return response, nil
}

// handleDeleteEndpoint handles the delete_api_endpoint MCP tool call.
func (s *MCPApifoxToolServer) handleDeleteEndpoint(ctx *server.Context, req tools.DeleteEndpointRequest) (tools.TextResponse, error) {
	start := time.Now()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	path := strings.TrimSpace(req.Path)
	slog.Info("Processing delete_api_endpoint request", "path", path, "method", method, "confirm", req.Confirm)

	response := tools.TextResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolDeleteEndpoint, start, response.Status) }()

	if err := s.platform.CheckConfig(); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if !req.Confirm {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(errors.New("confirm is false"),
			fmt.Sprintf("set confirm to true to delete %s %s", method, path)))
		return response, nil
	}

	doc, err := s.export(false)
	if err == nil {
		var e report.Endpoint
		if e, err = report.Find(doc, path, method); err == nil {
			response.Status = tools.StatusWarning
			response.Report = strings.Join([]string{
				"Endpoint deletion must be done in the Apifox client",
				rule,
				fmt.Sprintf("Endpoint: %s %s (%s)", e.Method, e.Path, e.Title()),
				"",
				"The open API can import and export but cannot delete endpoints. To delete it:",
				"   1. Open the project in the Apifox client or web app",
				"   2. Find the endpoint in the API tree (search for " + e.Path + ")",
				"   3. Right-click it and choose Delete",
				"   4. Empty the recycle bin to remove it permanently",
			}, "\n")
			return response, nil
		}
	}
	response.Status = tools.StatusError
	response.Error = fail(err)
	return response, nil
}
