package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/apifoxmcp/internal/apifox"
	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/report"
	"github.com/localrivet/apifoxmcp/internal/tools"
	"github.com/localrivet/apifoxmcp/internal/validation"
)

// handleGenerateCRUD handles the generate_crud_apis MCP tool call.
func (s *MCPApifoxToolServer) handleGenerateCRUD(ctx *server.Context, req tools.GenerateCRUDRequest) (tools.WriteResponse, error) {
	start := time.Now()
	spec := req.Spec()
	slog.Info("Processing generate_crud_apis request", "resource", spec.ResourceName, "base_path", spec.BasePath, "operations", spec.Operations)

	response := tools.WriteResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolGenerateCRUD, start, response.Status) }()

	if err := s.platform.CheckConfig(); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	if problems := spec.Check(); len(problems) > 0 {
		vs := make(validation.Violations, len(problems))
		for i, p := range problems {
			vs[i] = validation.Violation{Field: "model_schema", Message: p}
		}
		s.rejectViolations(tools.ToolGenerateCRUD, &response, vs)
		return response, nil
	}

	doc, endpoints, err := document.GenerateCRUD(spec)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.InternalError(err, "failed to generate CRUD document"))
		return response, nil
	}
	if err := document.Validate(s.ctx, doc); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(err, "generated document is not valid OpenAPI"))
		return response, nil
	}

	existing, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	var taken []string
	for _, e := range endpoints {
		if _, ok := report.Exists(existing, e.Path, e.Method); ok {
			taken = append(taken, e.String())
		}
	}
	if len(taken) > 0 {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ConflictError(errors.New(strings.Join(taken, ", ")),
			"endpoints already exist, choose another base_path or limit operations"))
		return response, nil
	}

	opts := apifox.ImportOptions{
		EndpointFolderID: req.FolderID,
		EndpointBehavior: apifox.CreateNew,
		SchemaBehavior:   apifox.OverwriteExisting,
	}
	target := fmt.Sprintf("CRUD %s %s", document.PascalCase(spec.ResourceName), doc.Info.Title)
	counters, applied, err := s.importDocument(tools.ToolGenerateCRUD, target, doc, opts, endpointsChanged)
	setCounters(&response, counters)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	lines := []string{
		"CRUD endpoints generated: " + doc.Info.Title,
		rule,
	}
	for _, e := range endpoints {
		lines = append(lines, fmt.Sprintf("[%-6s] %-40s | %s", e.Method, e.Path, e.Title))
	}
	lines = append(lines,
		"",
		"Components: "+strings.Join(document.ComponentNamesOf(doc), ", "),
		countersText(counters))
	if !applied {
		response.Status = tools.StatusWarning
		lines = append(lines, "", "Warning: the platform reported no endpoint created.")
	}
	response.Report = strings.Join(lines, "\n")
	return response, nil
}
