package apifoxmcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/localrivet/apifoxmcp/internal/apifox"
	"github.com/localrivet/apifoxmcp/internal/config"
	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/journal"
	"github.com/localrivet/apifoxmcp/internal/report"
	"github.com/localrivet/apifoxmcp/internal/server"
	"github.com/localrivet/apifoxmcp/internal/telemetry"
	"github.com/localrivet/apifoxmcp/internal/util"
)

// Config represents the configuration for the Apifox MCP service.
type Config = config.Config

// Server represents the Apifox MCP service.
type Server struct {
	config     *config.Config
	platform   apifox.Platform
	journal    journal.Journal
	metrics    *telemetry.Collector
	toolServer *server.MCPApifoxToolServer
	logger     *slog.Logger // Logger for this Server instance
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.

	// Platform replaces the Apifox client built from the config.
	Platform apifox.Platform
}

// Components are the parts a Server is assembled from.
type Components struct {
	Platform apifox.Platform
	Journal  journal.Journal
	Metrics  *telemetry.Collector
}

// NewServer creates a new Server with the given options.
// If opts.Config is provided, it will be used directly.
// Otherwise, if opts.ConfigPath is provided, configuration will be loaded from that path.
// If neither is provided, DefaultConfig() will be used.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			logger.Error("Failed to load configuration from path", "path", opts.ConfigPath, "error", err)
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		logger.Warn("No Config object or ConfigPath provided, using default configuration for server initialization")
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		// the tools still start so check_apifox_config can explain what is missing
		logger.Warn("Apifox credentials are incomplete", "error", err)
	}

	c, err := CreateComponents(cfg, logger)
	if err != nil {
		logger.Error("Failed to create components during server initialization", "error", err)
		return nil, err
	}
	if opts.Platform != nil {
		c.Platform = opts.Platform
	}

	logger.Info("Initializing Apifox tool server component")
	toolServer := server.NewApifoxToolServer(c.Platform, c.Journal, c.Metrics, SettingsFrom(cfg))
	if err := toolServer.Initialize(); err != nil {
		logger.Error("Failed to initialize MCP Apifox tool server component", "error", err)
		c.Journal.Close()
		return nil, errortypes.ConfigError(err, "Failed to initialize MCP Apifox tool server component")
	}

	logger.Info("Apifox MCP server successfully initialized", "project_id", cfg.Apifox.ProjectID)
	return &Server{
		config:     cfg,
		platform:   c.Platform,
		journal:    c.Journal,
		metrics:    c.Metrics,
		toolServer: toolServer,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the Apifox MCP service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// SettingsFrom extracts the values the tools report from a config.
func SettingsFrom(cfg *Config) server.Settings {
	s := server.Settings{
		ProjectID:      cfg.Apifox.ProjectID,
		APIVersion:     cfg.Apifox.APIVersion,
		BaseURL:        cfg.Apifox.BaseURL,
		ExtractSchemas: cfg.Rules.ExtractSchemas,
	}
	if cfg.Apifox.Token != "" {
		s.MaskedToken = cfg.MaskedToken()
	}
	return s
}

// CreateComponents builds the platform client, change journal and metrics
// collector without creating a server instance.
func CreateComponents(cfg *Config, logger *slog.Logger) (Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metrics := telemetry.NewCollector()

	logger.Info("Initializing Apifox client", "base_url", cfg.Apifox.BaseURL, "api_version", cfg.Apifox.APIVersion)
	client := apifox.NewClient(apifox.Options{
		BaseURL:           cfg.Apifox.BaseURL,
		Token:             cfg.Apifox.Token,
		ProjectID:         cfg.Apifox.ProjectID,
		APIVersion:        cfg.Apifox.APIVersion,
		Locale:            cfg.Apifox.Locale,
		OASVersion:        cfg.Apifox.OASVersion,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Apifox.RequestsPerSecond,
		Metrics:           metrics,
		Logger:            logger,
	})

	var j journal.Journal = journal.Nop{}
	if cfg.Journal.Enabled {
		logger.Info("Initializing SQLite change journal", "path", cfg.Journal.SQLitePath)
		sj := journal.NewSQLiteJournal()
		if err := sj.Initialize(cfg.Journal.SQLitePath); err != nil {
			logger.Error("Failed to initialize SQLite change journal", "path", cfg.Journal.SQLitePath, "error", err)
			return Components{}, errortypes.DatabaseError(err, "Failed to initialize SQLite change journal")
		}
		j = sj
	} else {
		logger.Info("Change journal disabled")
	}

	return Components{Platform: client, Journal: j, Metrics: metrics}, nil
}

// Start serves the tools over stdio until the client disconnects.
func (s *Server) Start() error {
	s.logger.Info("Starting Apifox MCP service")
	return s.toolServer.Start()
}

// Stop stops the service and closes the change journal.
func (s *Server) Stop() error {
	s.logger.Info("Stopping Apifox MCP service")
	if err := s.toolServer.Stop(); err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}

	if err := s.journal.Close(); err != nil {
		s.logger.Error("Failed to close change journal", "error", err)
		return err
	}

	s.logger.Info("Apifox MCP service stopped")
	return nil
}

// Check verifies the credentials and exports the project once.
func (s *Server) Check(ctx context.Context) (*openapi3.T, error) {
	if err := s.platform.CheckConfig(); err != nil {
		return nil, err
	}
	return s.platform.Export(ctx, apifox.ExportOptions{})
}

// Audit renders the response completeness report for the project.
func (s *Server) Audit(ctx context.Context, tag string, showComplete bool) (string, error) {
	doc, err := s.Check(ctx)
	if err != nil {
		return "", err
	}
	return report.AuditReport(doc, strings.TrimSpace(tag), showComplete), nil
}

// Export returns the project as an indented JSON or YAML document and the
// fingerprint of its JSON form.
func (s *Server) Export(ctx context.Context, format string, addFoldersToTags bool) ([]byte, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		return nil, "", errortypes.ValidationError(fmt.Errorf("unsupported format %q", format), "format must be json or yaml")
	}

	if err := s.platform.CheckConfig(); err != nil {
		return nil, "", err
	}
	doc, err := s.platform.Export(ctx, apifox.ExportOptions{AddFoldersToTags: addFoldersToTags})
	if err != nil {
		return nil, "", err
	}

	raw, err := document.JSONIndent(doc)
	if err != nil {
		return nil, "", errortypes.InternalError(err, "failed to encode document")
	}
	fingerprint := util.Fingerprint(raw)
	if format == "yaml" {
		if raw, err = document.JSONToYAML(raw); err != nil {
			return nil, "", errortypes.InternalError(err, "failed to render YAML")
		}
	}
	return raw, fingerprint, nil
}

// Config returns the configuration the server was built from.
func (s *Server) Config() *Config {
	return s.config
}

// ToolServer returns the MCP tool server, e.g. to Register its tools elsewhere.
func (s *Server) ToolServer() *server.MCPApifoxToolServer {
	return s.toolServer
}

// Metrics returns the metrics collector shared by the client and the tools.
func (s *Server) Metrics() *telemetry.Collector {
	return s.metrics
}
