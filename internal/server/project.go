package server

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/journal"
	"github.com/localrivet/apifoxmcp/internal/report"
	"github.com/localrivet/apifoxmcp/internal/tools"
	"github.com/localrivet/apifoxmcp/internal/util"
)

func orNotSet(v string) string {
	if v == "" {
		return "not set"
	}
	return v
}

// handleCheckConfig handles the check_apifox_config MCP tool call.
func (s *MCPApifoxToolServer) handleCheckConfig(ctx *server.Context, req tools.CheckConfigRequest) (tools.TextResponse, error) {
	start := time.Now()
	slog.Info("Processing check_apifox_config request")

	response := tools.TextResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolCheckConfig, start, response.Status) }()

	lines := []string{
		"Apifox configuration",
		rule,
		"Token: " + orNotSet(s.settings.MaskedToken),
		"Project ID: " + orNotSet(s.settings.ProjectID),
		"API version: " + orNotSet(s.settings.APIVersion),
		"Base URL: " + orNotSet(s.settings.BaseURL),
		"",
	}

	if err := s.platform.CheckConfig(); err != nil {
		lines = append(lines, "Configuration is incomplete.", configHint)
		response.Status = tools.StatusError
		response.Report = strings.Join(lines, "\n")
		response.Error = fail(err)
		return response, nil
	}

	doc, err := s.export(false)
	if err != nil {
		lines = append(lines, "Connection test: failed")
		resp := errorToResponse(err)
		for _, h := range resp.Hints {
			lines = append(lines, "   - "+h)
		}
		response.Status = tools.StatusError
		response.Report = strings.Join(lines, "\n")
		response.Error = fail(err)
		return response, nil
	}

	title := "untitled"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}
	lines = append(lines,
		"Connection test: OK",
		"Project: "+title,
		fmt.Sprintf("Endpoints: %d", len(report.Endpoints(doc))),
		fmt.Sprintf("Schemas: %d", len(document.ComponentNamesOf(doc))))
	response.Report = strings.Join(lines, "\n")
	return response, nil
}

// handleExportOpenAPI handles the export_openapi MCP tool call.
func (s *MCPApifoxToolServer) handleExportOpenAPI(ctx *server.Context, req tools.ExportRequest) (tools.ExportResponse, error) {
	start := time.Now()
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = tools.FormatJSON
	}
	slog.Info("Processing export_openapi request", "format", format, "add_folders_to_tags", req.AddFoldersToTags)

	response := tools.ExportResponse{Status: tools.StatusSuccess, Format: format}
	defer func() { s.observe(tools.ToolExportOpenAPI, start, response.Status) }()

	if format != tools.FormatJSON && format != tools.FormatYAML {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(fmt.Errorf("unsupported format %q", req.Format), "format must be json or yaml"))
		return response, nil
	}

	doc, err := s.export(req.AddFoldersToTags)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	raw, err := document.JSONIndent(doc)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.InternalError(err, "failed to encode document"))
		return response, nil
	}
	response.Fingerprint = util.Fingerprint(raw)

	if format == tools.FormatYAML {
		if raw, err = document.JSONToYAML(raw); err != nil {
			response.Status = tools.StatusError
			response.Error = fail(errortypes.InternalError(err, "failed to render YAML"))
			return response, nil
		}
	}
	response.Document = string(raw)
	slog.Info("Exported project", "format", format, "bytes", len(raw), "fingerprint", response.Fingerprint)
	return response, nil
}

// handleChangeHistory handles the get_change_history MCP tool call.
func (s *MCPApifoxToolServer) handleChangeHistory(ctx *server.Context, req tools.HistoryRequest) (tools.TextResponse, error) {
	start := time.Now()
	limit := req.Limit
	if limit <= 0 {
		limit = tools.DefaultHistoryLimit
	}
	slog.Info("Processing get_change_history request", "limit", limit)

	response := tools.TextResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolChangeHistory, start, response.Status) }()

	if _, disabled := s.journal.(journal.Nop); disabled {
		response.Report = "The change journal is disabled (journal.enabled = false)"
		return response, nil
	}

	entries, err := s.journal.Recent(limit)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.DatabaseError(err, "failed to read change journal"))
		return response, nil
	}
	response.Report = journal.Format(entries)
	return response, nil
}

// handleMetricsReport handles the get_metrics_report MCP tool call.
func (s *MCPApifoxToolServer) handleMetricsReport(ctx *server.Context, req tools.MetricsRequest) (tools.TextResponse, error) {
	slog.Info("Processing get_metrics_report request")

	response := tools.TextResponse{Status: tools.StatusSuccess}
	out, err := s.metrics.GetReport()
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.InternalError(err, "failed to build metrics report"))
		return response, nil
	}
	response.Report = out
	return response, nil
}
