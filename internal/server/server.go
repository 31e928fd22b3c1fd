// Package server provides the MCP server implementation for the Apifox tools.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/apifoxmcp/internal/apifox"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/journal"
	"github.com/localrivet/apifoxmcp/internal/telemetry"
	"github.com/localrivet/apifoxmcp/internal/tools"
	"github.com/localrivet/apifoxmcp/internal/util"
)

// ServerName is announced to MCP clients
const ServerName = "apifoxmcp"

const rule = "=================================================="

const toolCount = 25

// Settings are the configuration values the tools report or default from
type Settings struct {
	// MaskedToken is empty when no token is configured.
	MaskedToken string
	ProjectID   string
	APIVersion  string
	BaseURL     string

	// ExtractSchemas is the default for endpoint writes that leave extract_schemas unset.
	ExtractSchemas bool
}

// MCPApifoxToolServer implements the ApifoxToolServer interface
// for handling MCP tool calls against an Apifox project.
type MCPApifoxToolServer struct {
	platform  apifox.Platform
	journal   journal.Journal
	metrics   *telemetry.Collector
	settings  Settings
	mcpServer server.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApifoxToolServer creates a new MCPApifoxToolServer instance. A nil
// journal records nothing and a nil collector is replaced by a fresh one.
func NewApifoxToolServer(platform apifox.Platform, j journal.Journal, metrics *telemetry.Collector, settings Settings) *MCPApifoxToolServer {
	if j == nil {
		j = journal.Nop{}
	}
	if metrics == nil {
		metrics = telemetry.NewCollector()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MCPApifoxToolServer{
		platform: platform,
		journal:  j,
		metrics:  metrics,
		settings: settings,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Initialize registers every tool with a new MCP server.
func (s *MCPApifoxToolServer) Initialize() error {
	slog.Info("Initializing MCP Apifox Tool Server")

	if s.platform == nil {
		return errortypes.ConfigError(errors.New("missing platform client"), "server initialization failed")
	}

	s.mcpServer = s.Register(server.NewServer(ServerName))
	slog.Info("MCP Apifox Tool Server initialized successfully", "tool_count", toolCount)
	return nil
}

// Register adds every Apifox tool to srv and returns it. Use it to embed the
// tools in an MCP server that also serves other tools.
func (s *MCPApifoxToolServer) Register(srv server.Server) server.Server {
	// Configuration
	srv = srv.Tool(tools.ToolCheckConfig,
		"Show the Apifox configuration (token masked) and test the connection by exporting the project",
		s.handleCheckConfig)

	// Endpoints
	srv = srv.Tool(tools.ToolListEndpoints,
		"List endpoints of the project; keyword filters on title or path, limit defaults to 50",
		s.handleListEndpoints)
	srv = srv.Tool(tools.ToolGetEndpointDetail,
		"Show title, description, tags, parameters and responses of one endpoint",
		s.handleGetEndpointDetail)
	srv = srv.Tool(tools.ToolCreateEndpoint,
		"Create an endpoint. Title must be a business name (e.g. \"Create user\", not \"POST /users\"), "+
			"description is required, POST/PUT/PATCH need a request body schema and example, every schema property "+
			"and parameter needs a description and examples must use realistic values. Standard 4xx/5xx error "+
			"responses are added automatically",
		s.handleCreateEndpoint)
	srv = srv.Tool(tools.ToolUpdateEndpoint,
		"Replace an existing endpoint with a full new definition; same rules as create_api_endpoint. "+
			"new_path and new_method move it",
		s.handleUpdateEndpoint)
	srv = srv.Tool(tools.ToolDeleteEndpoint,
		"Explain how to delete an endpoint (the open API cannot delete); requires confirm",
		s.handleDeleteEndpoint)

	// Schemas
	srv = srv.Tool(tools.ToolListSchemas,
		"List data model schemas with their type and property count",
		s.handleListSchemas)
	srv = srv.Tool(tools.ToolGetSchemaDetail,
		"Show the properties of one schema; required fields are marked with *",
		s.handleGetSchemaDetail)
	srv = srv.Tool(tools.ToolCreateSchema,
		"Create a schema; every property needs a description and the example must match the schema",
		s.handleCreateSchema)
	srv = srv.Tool(tools.ToolUpdateSchema,
		"Overwrite an existing schema; same rules as create_schema",
		s.handleUpdateSchema)
	srv = srv.Tool(tools.ToolDeleteSchema,
		"Explain how to delete a schema (the open API cannot delete); requires confirm",
		s.handleDeleteSchema)

	// Folders and tags
	srv = srv.Tool(tools.ToolListFolders,
		"List endpoint folders with their endpoint counts",
		s.handleListFolders)
	srv = srv.Tool(tools.ToolCreateFolder,
		"Explain how to create a folder; endpoints are grouped by their tags",
		s.handleCreateFolder)
	srv = srv.Tool(tools.ToolDeleteFolder,
		"Explain how to delete a folder (the open API cannot delete); requires confirm",
		s.handleDeleteFolder)
	srv = srv.Tool(tools.ToolListTags,
		"List tags with endpoint counts, most used first",
		s.handleListTags)
	srv = srv.Tool(tools.ToolGetAPIsByTag,
		"List the endpoints carrying a tag; use Uncategorized for untagged endpoints",
		s.handleGetAPIsByTag)
	srv = srv.Tool(tools.ToolAddTagToAPI,
		"Replace the tag list of an endpoint",
		s.handleAddTagToAPI)

	// Quality checks
	srv = srv.Tool(tools.ToolCheckResponses,
		"Check that one endpoint has a documented success response and every required error response",
		s.handleCheckResponses)
	srv = srv.Tool(tools.ToolAuditResponses,
		"Audit response completeness of every endpoint, optionally only those with a tag",
		s.handleAuditResponses)
	srv = srv.Tool(tools.ToolCheckNaming,
		"Check every path against kebab-case (default), snake_case or camelCase",
		s.handleCheckNaming)
	srv = srv.Tool(tools.ToolCheckConsistency,
		"Compare the property sets of success and error responses and the pagination field names",
		s.handleCheckConsistency)

	// Generation and export
	srv = srv.Tool(tools.ToolGenerateCRUD,
		"Generate list/get/create/update/delete endpoints and their schemas for a resource model",
		s.handleGenerateCRUD)
	srv = srv.Tool(tools.ToolExportOpenAPI,
		"Export the whole project as an OpenAPI document in JSON or YAML",
		s.handleExportOpenAPI)

	// Local state
	srv = srv.Tool(tools.ToolChangeHistory,
		"Show the most recent writes sent to the project from this machine",
		s.handleChangeHistory)
	srv = srv.Tool(tools.ToolMetricsReport,
		"Show request, tool call and import metrics for this process",
		s.handleMetricsReport)

	return srv
}

// Start starts the MCP server on the stdio transport.
func (s *MCPApifoxToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(errors.New("server not initialized"), "cannot start server")
	}

	slog.Info("Starting MCP Apifox Tool Server")

	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop cancels in-flight platform calls.
func (s *MCPApifoxToolServer) Stop() error {
	slog.Info("Stopping MCP Apifox Tool Server")
	// The stdio transport exits when stdin is closed
	s.cancel()
	return nil
}

// observe records a finished tool call
func (s *MCPApifoxToolServer) observe(tool string, start time.Time, status string) {
	s.metrics.RecordToolCall(tool, status, time.Since(start))
}

// fail logs err and returns its client-facing text
func fail(err error) string {
	errortypes.LogError(nil, err)
	return errorMessage(err)
}

// export checks configuration and downloads the project
func (s *MCPApifoxToolServer) export(addFoldersToTags bool) (*openapi3.T, error) {
	if err := s.platform.CheckConfig(); err != nil {
		return nil, err
	}
	return s.platform.Export(s.ctx, apifox.ExportOptions{AddFoldersToTags: addFoldersToTags})
}

// readReport runs a read-only tool: export, then render
func (s *MCPApifoxToolServer) readReport(tool string, addFoldersToTags bool, render func(doc *openapi3.T) (string, error)) tools.TextResponse {
	start := time.Now()
	response := tools.TextResponse{Status: tools.StatusSuccess}

	doc, err := s.export(addFoldersToTags)
	if err == nil {
		response.Report, err = render(doc)
	}
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
	}

	s.observe(tool, start, response.Status)
	return response
}

// record appends a write to the journal. Journal failures are logged, never returned.
func (s *MCPApifoxToolServer) record(tool, target string, opts apifox.ImportOptions, status string, counters apifox.Counters, doc *openapi3.T, detail string) {
	entry := journal.Entry{
		Tool:            tool,
		Target:          target,
		Behavior:        string(opts.EndpointBehavior),
		Status:          status,
		EndpointCreated: counters.EndpointCreated,
		EndpointUpdated: counters.EndpointUpdated,
		SchemaCreated:   counters.SchemaCreated,
		SchemaUpdated:   counters.SchemaUpdated,
		Detail:          detail,
	}
	if strings.HasPrefix(target, "schema ") {
		entry.Behavior = string(opts.SchemaBehavior)
	}
	if doc != nil {
		if raw, err := json.Marshal(doc); err == nil {
			entry.Fingerprint = util.Fingerprint(raw)
		}
	}
	if _, err := s.journal.Record(entry); err != nil {
		errortypes.LogError(nil, errortypes.DatabaseError(err, "failed to record change").
			WithField("tool", tool).
			WithField("target", target))
	}
}

// importDocument sends doc and journals the outcome. changed picks the
// counter that must be non-zero for the write to count as applied.
func (s *MCPApifoxToolServer) importDocument(tool, target string, doc *openapi3.T, opts apifox.ImportOptions, changed func(apifox.Counters) int) (apifox.Counters, bool, error) {
	counters, err := s.platform.Import(s.ctx, doc, opts)
	if err != nil {
		s.record(tool, target, opts, tools.StatusError, counters, doc, err.Error())
		return counters, false, err
	}
	applied := changed(counters) > 0
	status := tools.StatusSuccess
	if !applied {
		status = tools.StatusWarning
	}
	s.record(tool, target, opts, status, counters, doc, "")
	return counters, applied, nil
}

func setCounters(response *tools.WriteResponse, c apifox.Counters) {
	response.EndpointCreated = c.EndpointCreated
	response.EndpointUpdated = c.EndpointUpdated
	response.SchemaCreated = c.SchemaCreated
	response.SchemaUpdated = c.SchemaUpdated
}

func endpointsChanged(c apifox.Counters) int { return c.Endpoints() }

func schemasChanged(c apifox.Counters) int { return c.Schemas() }
