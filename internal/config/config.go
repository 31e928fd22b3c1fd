package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/localrivet/configurator"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// Config represents the Apifox MCP configuration
type Config struct {
	// Apifox contains the connection settings for the Apifox open API.
	Apifox struct {
		// Token is the Apifox open API access token.
		Token string `json:"token" env:"TOKEN"`

		// ProjectID is the id of the target Apifox project.
		ProjectID string `json:"project_id" env:"PROJECT_ID"`

		// BaseURL is the root of the public open API.
		BaseURL string `json:"base_url" env:"BASE_URL" default:"https://api.apifox.com/v1" validate:"required"`

		// APIVersion is sent as the X-Apifox-Api-Version header.
		APIVersion string `json:"api_version" env:"API_VERSION" default:"2024-03-28" validate:"required"`

		// Locale is appended to import/export calls.
		Locale string `json:"locale" env:"LOCALE" default:"zh-CN"`

		// OASVersion is the OpenAPI version requested from export-openapi.
		OASVersion string `json:"oas_version" env:"OAS_VERSION" default:"3.0"`

		// TimeoutSeconds bounds a single request to the platform.
		TimeoutSeconds int `json:"timeout_seconds" env:"TIMEOUT_SECONDS" default:"30" validate:"min:1"`

		// RequestsPerSecond limits outbound calls; zero disables the limit.
		RequestsPerSecond float64 `json:"requests_per_second" env:"REQUESTS_PER_SECOND" default:"5"`
	} `json:"apifox"`

	// Rules contains documentation rule switches.
	Rules struct {
		// ExtractSchemas lifts endpoint schemas into shared components by default.
		ExtractSchemas bool `json:"extract_schemas" env:"EXTRACT_SCHEMAS"`
	} `json:"rules"`

	// Journal contains settings for the local change journal.
	Journal struct {
		// Enabled turns the journal on.
		Enabled bool `json:"enabled" env:"JOURNAL_ENABLED" default:"true"`

		// SQLitePath is the path to the SQLite journal file.
		SQLitePath string `json:"sqlite_path" env:"JOURNAL_SQLITE_PATH" default:".apifoxmcp.db"`
	} `json:"journal"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" default:"info" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT" default:"text"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".apifoxmcpconfig"
	DefaultEnvFilename    = ".env"
	DefaultBaseURL        = "https://api.apifox.com/v1"
	DefaultAPIVersion     = "2024-03-28"
	DefaultLocale         = "zh-CN"
	DefaultOASVersion     = "3.0"
	DefaultTimeoutSeconds = 30
	DefaultJournalPath    = ".apifoxmcp.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"

	// EnvPrefix prefixes every environment variable, e.g. APIFOX_TOKEN.
	EnvPrefix = "APIFOX"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Apifox.BaseURL = DefaultBaseURL
	config.Apifox.APIVersion = DefaultAPIVersion
	config.Apifox.Locale = DefaultLocale
	config.Apifox.OASVersion = DefaultOASVersion
	config.Apifox.TimeoutSeconds = DefaultTimeoutSeconds
	config.Apifox.RequestsPerSecond = 5
	config.Journal.Enabled = true
	config.Journal.SQLitePath = DefaultJournalPath
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path.
// Values are layered: defaults, then the JSON file (when present), then a .env
// file, then APIFOX_* environment variables.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// stdout belongs to the MCP stdio transport
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := NewConfig()

	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	if err := godotenv.Load(DefaultEnvFilename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		stdLogger.Warn("Failed to read .env file", "error", err)
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())

	if _, err := os.Stat(configPath); err == nil {
		stdLogger.Info("Loading configuration", "path", configPath)
		loader = loader.WithProvider(configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Info("Config file not found, using defaults and environment", "path", configPath)
	}

	loader = loader.
		WithProvider(configurator.NewEnvProvider(EnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	ctx := context.Background()
	if err := loader.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// Validate reports the first missing credential, or nil when the platform can be called.
func (c *Config) Validate() error {
	if c.Apifox.Token == "" {
		return errors.New("missing APIFOX_TOKEN: set your Apifox access token in the environment")
	}
	if c.Apifox.ProjectID == "" {
		return errors.New("missing APIFOX_PROJECT_ID: set the target project id in the environment")
	}
	return nil
}

// Timeout returns the request timeout as a duration
func (c *Config) Timeout() time.Duration {
	if c.Apifox.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.Apifox.TimeoutSeconds) * time.Second
}

// MaskedToken returns the token with its middle hidden
func (c *Config) MaskedToken() string {
	token := c.Apifox.Token
	if len(token) > 12 {
		return token[:8] + "..." + token[len(token)-4:]
	}
	return "***"
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
