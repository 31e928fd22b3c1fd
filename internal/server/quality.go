package server

import (
	"log/slog"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/apifoxmcp/internal/report"
	"github.com/localrivet/apifoxmcp/internal/tools"
)

// handleCheckResponses handles the check_api_responses MCP tool call.
func (s *MCPApifoxToolServer) handleCheckResponses(ctx *server.Context, req tools.EndpointRequest) (tools.TextResponse, error) {
	slog.Info("Processing check_api_responses request", "path", req.Path, "method", req.Method)
	return s.readReport(tools.ToolCheckResponses, false, func(doc *openapi3.T) (string, error) {
		return report.ResponseCheck(doc, strings.TrimSpace(req.Path), req.Method)
	}), nil
}

// handleAuditResponses handles the audit_all_api_responses MCP tool call.
func (s *MCPApifoxToolServer) handleAuditResponses(ctx *server.Context, req tools.AuditRequest) (tools.TextResponse, error) {
	slog.Info("Processing audit_all_api_responses request", "tag", req.Tag, "show_complete", req.ShowComplete)
	return s.readReport(tools.ToolAuditResponses, false, func(doc *openapi3.T) (string, error) {
		return report.AuditReport(doc, strings.TrimSpace(req.Tag), req.ShowComplete), nil
	}), nil
}

// handleCheckNaming handles the check_path_naming_convention MCP tool call.
func (s *MCPApifoxToolServer) handleCheckNaming(ctx *server.Context, req tools.NamingRequest) (tools.TextResponse, error) {
	slog.Info("Processing check_path_naming_convention request", "style", req.Style)
	return s.readReport(tools.ToolCheckNaming, false, func(doc *openapi3.T) (string, error) {
		return report.NamingReport(doc, strings.TrimSpace(req.Style))
	}), nil
}

// handleCheckConsistency handles the check_response_consistency MCP tool call.
func (s *MCPApifoxToolServer) handleCheckConsistency(ctx *server.Context, req tools.ConsistencyRequest) (tools.TextResponse, error) {
	slog.Info("Processing check_response_consistency request")
	return s.readReport(tools.ToolCheckConsistency, false, func(doc *openapi3.T) (string, error) {
		return report.ConsistencyReport(doc), nil
	}), nil
}
